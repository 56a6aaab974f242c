package models

// Template IDs for notification emails.
const (
	TemplateAgentApproved      = "agent_approved"
	TemplateAgentRejected      = "agent_rejected"
	TemplatePayRequestAccepted = "pay_request_accepted"
	TemplatePayRequestRejected = "pay_request_rejected"
	TemplateBillGenerated      = "bill_generated"
)

// EmailTemplate is a notification template stored in the email_templates collection.
// Subject and Body are text/template sources.
type EmailTemplate struct {
	Base       `bson:",inline"`
	TemplateID string `bson:"templateId" json:"templateId"`
	Locale     string `bson:"locale" json:"locale"`
	Subject    string `bson:"subject" json:"subject"`
	Body       string `bson:"body" json:"body"`
}
