package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mileusna/useragent"

	"github.com/avolkov/inkpress/internal/geoip"
	"github.com/avolkov/inkpress/internal/mailer"
	"github.com/avolkov/inkpress/internal/render"
	"github.com/avolkov/inkpress/internal/store"
	"github.com/avolkov/inkpress/internal/util"
)

// ContactHandler handles the contact form.
type ContactHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	geo      *geoip.Lookup
	mail     *mailer.Mailer
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(db *sql.DB, renderer *render.Renderer, geo *geoip.Lookup, mail *mailer.Mailer) *ContactHandler {
	return &ContactHandler{
		queries:  store.New(db),
		renderer: renderer,
		geo:      geo,
		mail:     mail,
	}
}

// ContactFormData holds data for the contact form.
type ContactFormData struct {
	Form   contactForm
	Errors ValidationErrors
}

// Form renders the contact page.
func (h *ContactHandler) Form(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, ContactFormData{Errors: ValidationErrors{}})
}

// Submit handles the contact form submission.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectContact) {
		return
	}

	form := contactForm{
		Name:    strings.TrimSpace(r.FormValue("name")),
		Email:   strings.TrimSpace(r.FormValue("email")),
		Contact: strings.TrimSpace(r.FormValue("contact")),
		Subject: strings.TrimSpace(r.FormValue("subject")),
		Message: strings.TrimSpace(r.FormValue("message")),
	}

	errs := form.validate()
	if !errs.OK() {
		h.renderForm(w, r, ContactFormData{Form: form, Errors: errs})
		return
	}

	ctx := r.Context()
	ip := clientIP(r)

	enq, err := h.queries.CreateEnquiry(ctx, store.CreateEnquiryParams{
		Name:      form.Name,
		Email:     form.Email,
		Contact:   form.Contact,
		Subject:   form.Subject,
		Message:   form.Message,
		IpAddress: util.NullStringFromValue(ip),
		UserAgent: util.NullStringFromValue(summarizeUserAgent(r.UserAgent())),
		Country:   util.NullStringFromValue(h.geo.LookupCountry(ip)),
		CreatedAt: time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to create enquiry", "error", err)
		return
	}

	// Notification delivery is best effort, the enquiry is already stored
	if err := h.mail.SendEnquiryNotification(enq); err != nil {
		slog.Error("failed to send enquiry notification", "error", err, "enquiry_id", enq.ID)
	}

	recordInfoEvent(ctx, h.queries, "Enquiry received from "+enq.Email,
		map[string]any{"enquiry_id": enq.ID, "subject": enq.Subject})

	flashSuccess(w, r, h.renderer, redirectContact, "Thanks for your message, we will get back to you soon")
}

// summarizeUserAgent reduces a raw user agent string to "Browser Version
// (OS)". Falls back to the raw string when the parser recognizes nothing.
func summarizeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}

	ua := useragent.Parse(raw)
	if ua.Name == "" {
		if len(raw) > 255 {
			return raw[:255]
		}
		return raw
	}

	summary := ua.Name
	if ua.Version != "" {
		summary += " " + ua.Version
	}
	if ua.OS != "" {
		summary += " (" + ua.OS + ")"
	}
	return summary
}

func (h *ContactHandler) renderForm(w http.ResponseWriter, r *http.Request, data ContactFormData) {
	if err := h.renderer.Render(w, r, "contact", render.TemplateData{
		Title: "Contact",
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render contact page", "error", err)
	}
}
