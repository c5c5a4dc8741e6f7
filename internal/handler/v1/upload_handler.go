package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/suryansh1j/vaidya/internal/middleware"
	"github.com/suryansh1j/vaidya/internal/service"
)

type UploadHandler struct {
	intakeSvc *service.IntakeService
	log       *zap.Logger
}

func NewUploadHandler(intakeSvc *service.IntakeService, log *zap.Logger) *UploadHandler {
	return &UploadHandler{intakeSvc: intakeSvc, log: log}
}

type patientInfoResponse struct {
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

type symptomsResponse struct {
	Affirmed []string `json:"affirmed"`
	Negated  []string `json:"negated"`
}

type uploadResponse struct {
	PatientID   string              `json:"patient_id"`
	PatientInfo patientInfoResponse `json:"patient_info"`
	Symptoms    symptomsResponse    `json:"symptoms"`
	Transcript  string              `json:"transcript"`
}

// Upload runs the full pipeline synchronously: the response is not written
// until transcription and both extraction passes complete.
func (h *UploadHandler) Upload(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}

	h.log.Info("audio upload request",
		zap.String("username", claims.Username),
		zap.String("filename", fileHeader.Filename),
		zap.Int64("size", fileHeader.Size),
	)

	src, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "could not read uploaded file")
		return
	}
	defer src.Close()

	rec, err := h.intakeSvc.Process(
		c.Request.Context(),
		claims.UserID,
		fileHeader.Filename,
		src,
		fileHeader.Size,
		c.ClientIP(),
		middleware.RequestIDFrom(c),
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, uploadResponse{
		PatientID: rec.ID.String(),
		PatientInfo: patientInfoResponse{
			PatientName:        rec.PatientName,
			Age:                rec.Age,
			Gender:             rec.Gender,
			ChiefComplaint:     rec.ChiefComplaint,
			PastMedicalHistory: rec.PastMedicalHistory,
			FamilyHistory:      rec.FamilyHistory,
			PreviousSurgeries:  rec.PreviousSurgeries,
			Lifestyle:          rec.Lifestyle,
			Allergies:          rec.Allergies,
			CurrentMedications: rec.CurrentMedications,
		},
		Symptoms: symptomsResponse{
			Affirmed: orEmpty(rec.AffirmedSymptoms),
			Negated:  orEmpty(rec.NegatedSymptoms),
		},
		Transcript: rec.Transcript,
	})
}

// orEmpty keeps symptom lists serializing as [] instead of null.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
