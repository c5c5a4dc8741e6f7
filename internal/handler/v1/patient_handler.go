package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suryansh1j/vaidya/internal/domain/patient"
	"github.com/suryansh1j/vaidya/internal/middleware"
	"github.com/suryansh1j/vaidya/internal/service"
)

type PatientHandler struct {
	patientSvc *service.PatientService
	log        *zap.Logger
}

func NewPatientHandler(patientSvc *service.PatientService, log *zap.Logger) *PatientHandler {
	return &PatientHandler{patientSvc: patientSvc, log: log}
}

type recordResponse struct {
	ID                 uuid.UUID `json:"id"`
	PatientName        string    `json:"patient_name"`
	Age                string    `json:"age"`
	Gender             string    `json:"gender"`
	ChiefComplaint     string    `json:"chief_complaint"`
	PastMedicalHistory string    `json:"past_medical_history"`
	FamilyHistory      string    `json:"family_history"`
	PreviousSurgeries  string    `json:"previous_surgeries"`
	Lifestyle          string    `json:"lifestyle"`
	Allergies          string    `json:"allergies"`
	CurrentMedications string    `json:"current_medications"`
	Transcript         string    `json:"transcript"`
	AffirmedSymptoms   []string  `json:"affirmed_symptoms"`
	NegatedSymptoms    []string  `json:"negated_symptoms"`
	CreatedAt          time.Time `json:"created_at"`
}

func toRecordResponse(r *patient.Record) recordResponse {
	return recordResponse{
		ID:                 r.ID,
		PatientName:        r.PatientName,
		Age:                r.Age,
		Gender:             r.Gender,
		ChiefComplaint:     r.ChiefComplaint,
		PastMedicalHistory: r.PastMedicalHistory,
		FamilyHistory:      r.FamilyHistory,
		PreviousSurgeries:  r.PreviousSurgeries,
		Lifestyle:          r.Lifestyle,
		Allergies:          r.Allergies,
		CurrentMedications: r.CurrentMedications,
		Transcript:         r.Transcript,
		AffirmedSymptoms:   r.AffirmedSymptoms,
		NegatedSymptoms:    r.NegatedSymptoms,
		CreatedAt:          r.CreatedAt,
	}
}

func (h *PatientHandler) List(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	summaries, err := h.patientSvc.ListRecords(c.Request.Context(), claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(summaries),
		"patients": summaries,
	})
}

func (h *PatientHandler) Get(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	rec, err := h.patientSvc.GetRecord(c.Request.Context(), claims.UserID, id, c.ClientIP(), middleware.RequestIDFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRecordResponse(rec))
}

// updateRecordRequest is the doctor-notes edit payload: every field is
// written as given, including blanks. Edits are destructive.
type updateRecordRequest struct {
	PatientName        string `json:"patient_name"`
	Age                string `json:"age"`
	Gender             string `json:"gender"`
	ChiefComplaint     string `json:"chief_complaint"`
	PastMedicalHistory string `json:"past_medical_history"`
	FamilyHistory      string `json:"family_history"`
	PreviousSurgeries  string `json:"previous_surgeries"`
	Lifestyle          string `json:"lifestyle"`
	Allergies          string `json:"allergies"`
	CurrentMedications string `json:"current_medications"`
}

func (h *PatientHandler) Update(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	fields := patient.Fields{
		PatientName:        req.PatientName,
		Age:                req.Age,
		Gender:             req.Gender,
		ChiefComplaint:     req.ChiefComplaint,
		PastMedicalHistory: req.PastMedicalHistory,
		FamilyHistory:      req.FamilyHistory,
		PreviousSurgeries:  req.PreviousSurgeries,
		Lifestyle:          req.Lifestyle,
		Allergies:          req.Allergies,
		CurrentMedications: req.CurrentMedications,
	}

	rec, err := h.patientSvc.UpdateRecord(c.Request.Context(), claims.UserID, id, fields, c.ClientIP(), middleware.RequestIDFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRecordResponse(rec))
}
