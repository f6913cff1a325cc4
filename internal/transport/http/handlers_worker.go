package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"

	refmodels "afya/internal/reference/models"
	refservice "afya/internal/reference/service"
	"afya/internal/validate"
	workerservice "afya/internal/worker/service"
	id "afya/pkg/domain"
	dErrors "afya/pkg/domain-errors"
	"afya/pkg/platform/sentinel"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// WorkerHandler serves registration submissions and the explicit verification
// actions.
type WorkerHandler struct {
	workers  *workerservice.Service
	pipeline validate.Object
}

func NewWorkerHandler(workers *workerservice.Service, reference *refservice.Service) *WorkerHandler {
	return &WorkerHandler{
		workers:  workers,
		pipeline: registrationPipeline(reference),
	}
}

func (h *WorkerHandler) Register(r chi.Router) {
	r.Post("/health-workers", h.handleUpsert)
	r.Get("/health-workers/{id}", h.handleGet)
	r.Post("/health-workers/{id}/reject", h.handleReject)
	r.Post("/health-workers/{id}/specialties", h.handleAssignSpecialty)
}

// registrationPipeline declares the field parsers for a registration
// submission, in evaluation order. References resolve against live reference
// data so dangling IDs fail before any write happens.
func registrationPipeline(reference *refservice.Service) validate.Object {
	return validate.Object{
		{Name: "name", Parser: validate.String{Required: true, Strip: true, MaxLength: 100}},
		{Name: "surname", Parser: validate.String{Strip: true, MaxLength: 100}},
		{Name: "vodacom_phone", Parser: validate.String{Required: true, Strip: true, Pattern: phonePattern}},
		{Name: "other_phone", Parser: validate.String{Strip: true, Pattern: phonePattern}},
		{Name: "address", Parser: validate.String{Strip: true, MaxLength: 255}},
		{Name: "birthdate", Parser: validate.Date{}},
		{Name: "country", Parser: validate.String{Strip: true, MaxLength: 64}},
		{Name: "email", Parser: validate.String{Strip: true, MaxLength: 255, Pattern: emailPattern}},
		{Name: "language", Parser: validate.String{Strip: true, MaxLength: 32}},
		{Name: "facility", Parser: validate.Reference{Kind: "facility", Lookup: facilityLookup(reference)}},
		{Name: "specialties", Parser: validate.List{
			Elem: validate.Reference{Kind: "specialty", Lookup: specialtyLookup(reference)},
		}},
		{Name: "mct_registration_num", Parser: validate.String{Strip: true, MaxLength: 64}},
		{Name: "mct_payroll_num", Parser: validate.String{Strip: true, MaxLength: 64}},
	}
}

func facilityLookup(reference *refservice.Service) func(ctx context.Context, raw string) (any, error) {
	return func(ctx context.Context, raw string) (any, error) {
		facilityID, err := id.ParseFacilityID(raw)
		if err != nil {
			return nil, sentinel.ErrNotFound
		}
		facility, err := reference.Facility(ctx, facilityID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				return nil, sentinel.ErrNotFound
			}
			return nil, err
		}
		return facility, nil
	}
}

func specialtyLookup(reference *refservice.Service) func(ctx context.Context, raw string) (any, error) {
	return func(ctx context.Context, raw string) (any, error) {
		specialtyID, err := id.ParseSpecialtyID(raw)
		if err != nil {
			return nil, sentinel.ErrNotFound
		}
		specialty, err := reference.Specialty(ctx, specialtyID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				return nil, sentinel.ErrNotFound
			}
			return nil, err
		}
		return specialty, nil
	}
}

// POST /health-workers runs the submission through the validation pipeline
// and upserts on the phone identity.
func (h *WorkerHandler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var body any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	parsed, err := h.pipeline.Parse(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}

	worker, err := h.workers.Upsert(r.Context(), upsertInput(parsed))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]any{"health_worker": worker})
}

// upsertInput maps the validated field set onto the service input. Parsed
// references arrive as entities; only their IDs travel further.
func upsertInput(parsed map[string]any) workerservice.UpsertInput {
	input := workerservice.UpsertInput{
		Name:               stringField(parsed, "name"),
		Surname:            stringField(parsed, "surname"),
		VodacomPhone:       stringField(parsed, "vodacom_phone"),
		OtherPhone:         stringField(parsed, "other_phone"),
		Address:            stringField(parsed, "address"),
		Country:            stringField(parsed, "country"),
		Email:              stringField(parsed, "email"),
		Language:           stringField(parsed, "language"),
		MCTRegistrationNum: stringField(parsed, "mct_registration_num"),
		MCTPayrollNum:      stringField(parsed, "mct_payroll_num"),
	}
	if birthdate, ok := parsed["birthdate"].(*time.Time); ok {
		input.Birthdate = birthdate
	}
	if facility, ok := parsed["facility"].(*refmodels.Facility); ok && facility != nil {
		facilityID := facility.ID
		input.FacilityID = &facilityID
	}
	if specialties, ok := parsed["specialties"].([]any); ok {
		for _, entry := range specialties {
			if specialty, ok := entry.(*refmodels.Specialty); ok && specialty != nil {
				input.SpecialtyIDs = append(input.SpecialtyIDs, specialty.ID)
			}
		}
	}
	return input
}

func stringField(parsed map[string]any, key string) string {
	s, _ := parsed[key].(string)
	return s
}

// GET /health-workers/{id} returns one worker.
func (h *WorkerHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	workerID, err := id.ParseWorkerID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, dErrors.NewWithKey(dErrors.CodeInvalidInput, "id", "invalid worker id"))
		return
	}
	worker, err := h.workers.Get(r.Context(), workerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]any{"health_worker": worker})
}

// POST /health-workers/{id}/reject marks a record rejected. Terminal.
func (h *WorkerHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	workerID, err := id.ParseWorkerID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, dErrors.NewWithKey(dErrors.CodeInvalidInput, "id", "invalid worker id"))
		return
	}
	worker, err := h.workers.Reject(r.Context(), workerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]any{"health_worker": worker})
}

// POST /health-workers/{id}/specialties attaches one specialty.
func (h *WorkerHandler) handleAssignSpecialty(w http.ResponseWriter, r *http.Request) {
	workerID, err := id.ParseWorkerID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, dErrors.NewWithKey(dErrors.CodeInvalidInput, "id", "invalid worker id"))
		return
	}
	var body struct {
		SpecialtyID string `json:"specialty_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	specialtyID, err := id.ParseSpecialtyID(body.SpecialtyID)
	if err != nil {
		writeError(w, dErrors.NewWithKey(dErrors.CodeInvalidInput, "specialty_id", "invalid specialty id"))
		return
	}
	if err := h.workers.AssignSpecialty(r.Context(), workerID, specialtyID); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, nil)
}
