package request

var (
	yesNo         = []string{"Yes", "No"}
	phoneAddon    = []string{"Yes", "No", "No phone service"}
	internetAddon = []string{"Yes", "No", "No internet service"}
)

// Vocabulary lists the accepted values for each categorical customer
// attribute, in the spelling the model was trained on.
var Vocabulary = map[string][]string{
	"gender":           {"Male", "Female"},
	"Partner":          yesNo,
	"Dependents":       yesNo,
	"PhoneService":     yesNo,
	"PaperlessBilling": yesNo,
	"MultipleLines":    phoneAddon,
	"InternetService":  {"DSL", "Fiber optic", "No"},
	"OnlineSecurity":   internetAddon,
	"OnlineBackup":     internetAddon,
	"DeviceProtection": internetAddon,
	"TechSupport":      internetAddon,
	"StreamingTV":      internetAddon,
	"StreamingMovies":  internetAddon,
	"Contract":         {"Month-to-month", "One year", "Two year"},
	"PaymentMethod": {
		"Electronic check",
		"Mailed check",
		"Bank transfer (automatic)",
		"Credit card (automatic)",
	},
}
