package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/OldStager01/churn-dashboard/pkg/validation"
)

const maxMultipartMemory = 32 << 10

var errUnsupportedMedia = errors.New("content type must be application/json or a form encoding")

// PredictRequest documents the JSON body. Any customer attribute may be
// sent; values are strings (numbers are accepted and converted).
type PredictRequest struct {
	Tenure         string `json:"tenure" example:"24"`
	MonthlyCharges string `json:"MonthlyCharges" example:"55.5"`
	SeniorCitizen  string `json:"SeniorCitizen" example:"0"`
	TotalCharges   string `json:"TotalCharges,omitempty" example:"1332.0"`
	Contract       string `json:"Contract,omitempty" example:"Month-to-month"`
}

// Predict godoc
// @Summary Predict churn for one customer
// @Description Validates the customer record, scores it with the model service and returns a display-ready result. Only one prediction may be in flight at a time.
// @Tags Predictions
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param request body PredictRequest true "Customer attributes"
// @Success 200 {object} models.DisplayResult
// @Failure 400 {object} ErrorResponse "Invalid customer data"
// @Failure 409 {object} ErrorResponse "A prediction is already in progress"
// @Failure 413 {object} ErrorResponse "Body too large"
// @Failure 415 {object} ErrorResponse "Unsupported content type"
// @Failure 502 {object} ErrorResponse "Model service error"
// @Failure 503 {object} ErrorResponse "Circuit open"
// @Router /api/v1/predict [post]
func (h *DashboardHandler) Predict(c *gin.Context) {
	raw, err := readCustomer(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		var fieldErr *validation.ValidationError
		switch {
		case errors.As(err, &tooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
		case errors.Is(err, errUnsupportedMedia):
			c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Error: err.Error()})
		case errors.As(err, &fieldErr):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:  "invalid customer data",
				Fields: []*validation.ValidationError{fieldErr},
			})
		default:
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed request body", Detail: err.Error()})
		}
		return
	}

	result, err := h.service.Predict(c.Request.Context(), raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// readCustomer returns the submitted attributes as strings, from a JSON
// object or a form.
func readCustomer(c *gin.Context) (map[string]string, error) {
	switch c.ContentType() {
	case binding.MIMEJSON:
		return readJSON(c)
	case binding.MIMEPOSTForm:
		if err := c.Request.ParseForm(); err != nil {
			return nil, err
		}
	case binding.MIMEMultipartPOSTForm:
		if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, err
		}
	default:
		return nil, errUnsupportedMedia
	}

	raw := make(map[string]string, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			raw[key] = values[0]
		}
	}
	return raw, nil
}

func readJSON(c *gin.Context) (map[string]string, error) {
	var body map[string]interface{}
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}

	raw := make(map[string]string, len(body))
	for key, value := range body {
		switch v := value.(type) {
		case nil:
			// absent
		case string:
			raw[key] = v
		case json.Number:
			raw[key] = v.String()
		case bool:
			raw[key] = strconv.Itoa(boolToInt(v))
		default:
			return nil, validation.NewError(key, "must be a string or number")
		}
	}
	return raw, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
