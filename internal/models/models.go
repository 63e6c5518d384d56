package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleClient Role = "client"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleClient:
		return true
	}
	return false
}

type Account struct {
	ID           int       `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// AccountSummary is an account joined with whichever profile it owns.
type AccountSummary struct {
	ID          int     `json:"id" db:"id"`
	Username    string  `json:"username" db:"username"`
	Role        Role    `json:"role" db:"role"`
	Name        *string `json:"name" db:"name"`
	Email       *string `json:"email" db:"email"`
	Mobile      *string `json:"mobile" db:"mobile"`
	CompanyName *string `json:"company_name" db:"company_name"`
}

type Company struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ABN       string    `json:"abn" db:"abn"`
	Web       *string   `json:"web" db:"web"`
	Phone     *string   `json:"phone" db:"phone"`
	Email     *string   `json:"email" db:"email"`
	Address   *string   `json:"address" db:"address"`
	Logo      *string   `json:"logo" db:"logo"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CompanyName struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Address struct {
	Street   string `json:"street,omitempty"`
	State    string `json:"state,omitempty"`
	Postcode string `json:"postcode,omitempty"`
}

type Contact struct {
	Name         string `json:"name,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Mobile       string `json:"mobile,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Address      string `json:"address,omitempty"`
}

// BankAccount numbers and BSBs are encrypted before they reach the database.
type BankAccount struct {
	BankName      string `json:"bank_name,omitempty"`
	AccountName   string `json:"account_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	Branch        string `json:"branch,omitempty"`
	BSB           string `json:"bsb,omitempty"`
}

type StaffDetails struct {
	Residential Address `json:"residential"`
	Postal      Address `json:"postal"`

	Emergency1 Contact `json:"emergency1"`
	Emergency2 Contact `json:"emergency2"`

	Bank1            BankAccount `json:"bank1"`
	Bank2            BankAccount `json:"bank2"`
	BankUnit         string      `json:"bank_unit,omitempty"`
	BankAmount       *float64    `json:"bank_amount,omitempty"`
	BankPercentNet   *float64    `json:"bank_percent_net_pay,omitempty"`
	EmployeeTax      string      `json:"employee_tax,omitempty"`
	ABN              string      `json:"abn,omitempty"`
	SecondaryEmploy  *bool       `json:"secondary_employment,omitempty"`
	SecondaryDetails string      `json:"secondary_employment_details,omitempty"`

	Epilepsy              *bool  `json:"epilepsy,omitempty"`
	Diabetes              *bool  `json:"diabetes,omitempty"`
	DiabetesType          string `json:"diabetes_type,omitempty"`
	HeartCondition        *bool  `json:"heart_condition,omitempty"`
	HeartConditionDetails string `json:"heart_condition_details,omitempty"`
	Allergies             *bool  `json:"allergies,omitempty"`
	AllergiesDetails      string `json:"allergies_details,omitempty"`
	HealthOthers          *bool  `json:"health_others,omitempty"`
	HealthOthersDetails   string `json:"health_others_details,omitempty"`

	Australian       *bool  `json:"australian,omitempty"`
	AusPermanent     *bool  `json:"aus_permanent,omitempty"`
	HaveWorkingVisa  *bool  `json:"have_working_visa,omitempty"`
	VisaExpiryDate   *Date  `json:"visa_expiry_date,omitempty"`
	VisaRestrictions string `json:"visa_restrictions,omitempty"`
}

func (d StaffDetails) Value() (driver.Value, error) { return jsonValue(d) }

func (d *StaffDetails) Scan(src any) error { return scanJSON(src, d) }

type Staff struct {
	ID            int          `json:"id" db:"id"`
	UserID        int          `json:"user_id" db:"user_id"`
	CompanyID     int          `json:"company_id" db:"company_id"`
	Title         *string      `json:"title" db:"title"`
	GivenName     *string      `json:"given_name" db:"given_name"`
	Surname       *string      `json:"surname" db:"surname"`
	PreferredName *string      `json:"preferred_name" db:"preferred_name"`
	DateOfBirth   *Date        `json:"dob" db:"dob"`
	DateOfReg     *Date        `json:"date_of_reg" db:"date_of_reg"`
	HomeEmail     *string      `json:"home_email" db:"home_email"`
	HomePhone     *string      `json:"home_phone" db:"home_phone"`
	HomeMobile    *string      `json:"home_mobile" db:"home_mobile"`
	ImagePath     *string      `json:"image_path" db:"image_path"`
	Details       StaffDetails `json:"details" db:"details"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

type PlanProvider struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Advocate struct {
	Surname       string `json:"surname,omitempty"`
	GivenName     string `json:"given_name,omitempty"`
	Relationship  string `json:"relationship,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Mobile        string `json:"mobile,omitempty"`
	Email         string `json:"email,omitempty"`
	Address       string `json:"address,omitempty"`
	PostalAddress string `json:"postal_address,omitempty"`
}

type Culture struct {
	BirthCountry            string `json:"birth_country,omitempty"`
	MainLanguage            string `json:"main_language,omitempty"`
	LangInterpreterRequired *bool  `json:"lang_interpreter_required,omitempty"`
	CulturalBarriers        *bool  `json:"cultural_barriers,omitempty"`
	VerbalCommunication     string `json:"verbal_communication,omitempty"`
	InterpreterNeeded       *bool  `json:"interpreter_needed,omitempty"`
	InterpreterLanguage     string `json:"interpreter_language,omitempty"`
	CulturalValues          string `json:"cultural_values,omitempty"`
	CulturalBehaviours      string `json:"cultural_behaviours,omitempty"`
	CommunicationLiteracy   string `json:"communication_literacy,omitempty"`
}

type PhysicalProfile struct {
	Weight     *float64 `json:"weight,omitempty"`
	Height     *float64 `json:"height,omitempty"`
	EyeColor   string   `json:"eye_color,omitempty"`
	Complexion string   `json:"complexion,omitempty"`
	Build      string   `json:"build,omitempty"`
	HairColor  string   `json:"hair_color,omitempty"`
	FacialHair string   `json:"facial_hair,omitempty"`
	BirthMarks *bool    `json:"birth_marks,omitempty"`
	Tattoos    *bool    `json:"tattoos,omitempty"`
}

type MedicalContact struct {
	ClinicName string `json:"clinic_name,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	Surname    string `json:"surname,omitempty"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Mobile     string `json:"mobile,omitempty"`
}

type ClientDetails struct {
	Aboriginal  *bool   `json:"aboriginal,omitempty"`
	Residential Address `json:"residential"`
	Postal      Address `json:"postal"`

	PlanProvider         PlanProvider    `json:"plan_provider"`
	RegisteredOtherNDIS  *bool           `json:"registered_other_ndis,omitempty"`
	ServiceReceivedOther string          `json:"service_received_other_ndis,omitempty"`
	Advocate             Advocate        `json:"advocate"`
	Culture              Culture         `json:"culture"`
	Physical             PhysicalProfile `json:"physical"`

	Emergency1         Contact        `json:"emergency1"`
	Emergency2         Contact        `json:"emergency2"`
	GP                 MedicalContact `json:"gp"`
	HaveSpecialist     *bool          `json:"have_specialist,omitempty"`
	Specialist         MedicalContact `json:"specialist"`
	SupportCoordinator Contact        `json:"support_coordinator"`

	LivingArrangement string `json:"living_arrangement,omitempty"`
	Travel            string `json:"travel,omitempty"`
	ImportantPeople   string `json:"important_people,omitempty"`
}

func (d ClientDetails) Value() (driver.Value, error) { return jsonValue(d) }

func (d *ClientDetails) Scan(src any) error { return scanJSON(src, d) }

type Client struct {
	ID                 int           `json:"id" db:"id"`
	UserID             int           `json:"user_id" db:"user_id"`
	CompanyID          int           `json:"company_id" db:"company_id"`
	NDIS               string        `json:"ndis" db:"ndis"`
	Reference          *string       `json:"reference" db:"reference"`
	GivenName          *string       `json:"given_name" db:"given_name"`
	Surname            *string       `json:"surname" db:"surname"`
	PreferredName      *string       `json:"preferred_name" db:"preferred_name"`
	Sex                *string       `json:"sex" db:"sex"`
	DateOfBirth        *Date         `json:"date_of_birth" db:"date_of_birth"`
	DateOfReg          *Date         `json:"date_of_reg" db:"date_of_reg"`
	PlanStartDate      *Date         `json:"plan_start_date" db:"plan_start_date"`
	PlanEndDate        *Date         `json:"plan_end_date" db:"plan_end_date"`
	NDISStartDate      *Date         `json:"ndis_start_date" db:"ndis_start_date"`
	NDISEndDate        *Date         `json:"ndis_end_date" db:"ndis_end_date"`
	NDISPlanReviewDate *Date         `json:"ndis_plan_review_date" db:"ndis_plan_review_date"`
	FundingType        *string       `json:"funding_type" db:"funding_type"`
	Disability         *string       `json:"disability" db:"disability"`
	HomeEmail          *string       `json:"home_email" db:"home_email"`
	HomePhone          *string       `json:"home_phone" db:"home_phone"`
	HomeMobile         *string       `json:"home_mobile" db:"home_mobile"`
	ImagePath          *string       `json:"image_path" db:"image_path"`
	Details            ClientDetails `json:"details" db:"details"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
}

// Task is one shift between a staff member and a client. Hours is always
// derived from the start and end pair.
type Task struct {
	ID          int        `json:"id" db:"id"`
	StaffID     int        `json:"staff_id" db:"staff_id"`
	ClientID    int        `json:"client_id" db:"client_id"`
	StartDate   Date       `json:"start_date" db:"start_date"`
	StartTime   Clock      `json:"start_time" db:"start_time"`
	EndDate     Date       `json:"end_date" db:"end_date"`
	EndTime     Clock      `json:"end_time" db:"end_time"`
	ServiceType string     `json:"service_type" db:"service_type"`
	TasksList   *string    `json:"tasks_list" db:"tasks_list"`
	Hours       float64    `json:"hours" db:"hours"`
	Done        bool       `json:"done" db:"done"`
	DoneTime    *time.Time `json:"done_time" db:"done_time"`
	Approved    bool       `json:"approved" db:"approved"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TaskDetails adds display names and attachment paths to a task.
type TaskDetails struct {
	Task
	StaffName    string         `json:"staff_name" db:"staff_name"`
	ClientName   string         `json:"client_name" db:"client_name"`
	StaffUserID  int            `json:"staff_user_id" db:"staff_user_id"`
	ClientUserID int            `json:"client_user_id" db:"client_user_id"`
	MediaFiles   pq.StringArray `json:"media_files" db:"media_files"`
}

// Event builds the websocket notification for a change to this task.
func (d TaskDetails) Event(typ TaskEventType, at time.Time) TaskEvent {
	return TaskEvent{
		Type:         typ,
		TaskID:       d.ID,
		StaffID:      d.StaffID,
		ClientID:     d.ClientID,
		At:           at,
		StaffUserID:  d.StaffUserID,
		ClientUserID: d.ClientUserID,
	}
}

type Media struct {
	ID        int       `json:"id" db:"id"`
	TaskID    int       `json:"task_id" db:"task_id"`
	FilePath  string    `json:"file_path" db:"file_path"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type TaskEventType string

const (
	TaskCreated      TaskEventType = "task.created"
	TaskEdited       TaskEventType = "task.edited"
	TaskDeleted      TaskEventType = "task.deleted"
	TaskStatusChange TaskEventType = "task.status"
	TaskMediaChange  TaskEventType = "task.media"
)

type TaskEvent struct {
	Type     TaskEventType `json:"type"`
	TaskID   int           `json:"task_id"`
	StaffID  int           `json:"staff_id"`
	ClientID int           `json:"client_id"`
	At       time.Time     `json:"at"`

	// Accounts owning the staff and client profiles, used to pick receivers.
	StaffUserID  int `json:"-"`
	ClientUserID int `json:"-"`
}

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported JSON column type")
	}
}
