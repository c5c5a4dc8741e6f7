package patient

import (
	"time"

	"github.com/google/uuid"
)

// Record is the persisted structured output of one processed consultation:
// the ten extracted patient fields, the raw transcript, and the symptom
// partition. A record always belongs to exactly one doctor; edits through
// the doctor-notes page overwrite fields in place, there is no versioning.
type Record struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	DoctorID uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	PatientName        string `gorm:"column:patient_name;type:varchar(255)"`
	Age                string `gorm:"column:age;type:varchar(10)"`
	Gender             string `gorm:"column:gender;type:varchar(20)"`
	ChiefComplaint     string `gorm:"column:chief_complaint;type:text"`
	PastMedicalHistory string `gorm:"column:past_medical_history;type:text"`
	FamilyHistory      string `gorm:"column:family_history;type:text"`
	PreviousSurgeries  string `gorm:"column:previous_surgeries;type:text"`
	Lifestyle          string `gorm:"column:lifestyle;type:text"`
	Allergies          string `gorm:"column:allergies;type:text"`
	CurrentMedications string `gorm:"column:current_medications;type:text"`

	AudioFilename string `gorm:"column:audio_filename;type:varchar(255)"`
	Transcript    string `gorm:"column:transcript;type:text"`

	AffirmedSymptoms []string `gorm:"column:affirmed_symptoms;serializer:json"`
	NegatedSymptoms  []string `gorm:"column:negated_symptoms;serializer:json"`
}

func (Record) TableName() string {
	return "clinical.consultation_records"
}

// Fields groups the ten free-text patient fields extracted from a
// transcript. An empty string means the field was not provided in the
// consultation audio.
type Fields struct {
	PatientName        string
	Age                string
	Gender             string
	ChiefComplaint     string
	PastMedicalHistory string
	FamilyHistory      string
	PreviousSurgeries  string
	Lifestyle          string
	Allergies          string
	CurrentMedications string
}

// Symptoms is the affirmed/negated partition produced by the symptom
// extractor. The lists are order-preserving and free of duplicates; a term
// never appears in both.
type Symptoms struct {
	Affirmed []string
	Negated  []string
}

type CreateRecordCommand struct {
	DoctorID      uuid.UUID
	Fields        Fields
	AudioFilename string
	Transcript    string
	Symptoms      Symptoms
}

// UpdateRecordCommand carries the doctor-notes edit: a destructive
// full-field overwrite of the ten extracted fields.
type UpdateRecordCommand struct {
	Fields Fields
}

// Summary is the list-view projection of a record.
type Summary struct {
	ID          uuid.UUID `json:"id"`
	PatientName string    `json:"patient_name"`
	Age         string    `json:"age"`
	Gender      string    `json:"gender"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *Record) Summary() Summary {
	return Summary{
		ID:          r.ID,
		PatientName: r.PatientName,
		Age:         r.Age,
		Gender:      r.Gender,
		CreatedAt:   r.CreatedAt,
	}
}

func (r *Record) ApplyFields(f Fields) {
	r.PatientName = f.PatientName
	r.Age = f.Age
	r.Gender = f.Gender
	r.ChiefComplaint = f.ChiefComplaint
	r.PastMedicalHistory = f.PastMedicalHistory
	r.FamilyHistory = f.FamilyHistory
	r.PreviousSurgeries = f.PreviousSurgeries
	r.Lifestyle = f.Lifestyle
	r.Allergies = f.Allergies
	r.CurrentMedications = f.CurrentMedications
}
