package handler

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/pick3app/pick3/internal/user"
	"github.com/pick3app/pick3/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// pageUser is the flattened view of a user record handed to templates.
type pageUser struct {
	Email       string
	Plan        string
	Status      string
	HasCustomer bool
}

func newPageUser(rec *user.Record) *pageUser {
	if rec == nil {
		return nil
	}
	pu := &pageUser{Email: rec.Email}
	if rec.Plan != nil {
		pu.Plan = string(*rec.Plan)
	}
	if rec.Status != nil {
		pu.Status = string(*rec.Status)
	}
	if rec.StripeCustomerID != nil && *rec.StripeCustomerID != "" {
		pu.HasCustomer = true
	}
	return pu
}

type pageData struct {
	User           *pageUser
	Email          string
	PublishableKey string
}

func (h *Handler) renderPage(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		h.log.Error("render page", logger.Component("handler"), logger.Error(err), "page", name)
	}
}
