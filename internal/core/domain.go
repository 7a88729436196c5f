package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DayNormal      DayType = "normal"
	DayMaintenance DayType = "maintenance"
	DayInactive    DayType = "inactive"

	SupplierMechanic   SupplierType = "mechanic"
	SupplierWholesaler SupplierType = "wholesaler"
	SupplierOther      SupplierType = "other"

	DebtPending DebtStatus = "pending"
	DebtPartial DebtStatus = "partial"
	DebtPaid    DebtStatus = "paid"

	ProvisionalPending   ProvisionalStatus = "provisional"
	ProvisionalConfirmed ProvisionalStatus = "confirmed"
	ProvisionalCancelled ProvisionalStatus = "cancelled"

	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"

	ObjectivePending ObjectiveStatus = "pending"
	ObjectiveDone    ObjectiveStatus = "done"
	ObjectiveLate    ObjectiveStatus = "late"

	NotifyReminder   NotificationType = "reminder"
	NotifyAutomation NotificationType = "automation"
	NotifyObjective  NotificationType = "objective"
	NotifyDebt       NotificationType = "debt"
)

// DefaultReminderDays applies when an objective has no lead time configured.
const DefaultReminderDays = 7

type (
	DayType           string
	SupplierType      string
	DebtStatus        string
	ProvisionalStatus string
	Frequency         string
	ObjectiveStatus   string
	NotificationType  string

	ExpenseItem struct {
		ID           string          `json:"id"`
		Category     string          `json:"category"`
		Subcategory  string          `json:"subcategory,omitempty"`
		Amount       decimal.Decimal `json:"amount"`
		Liters       decimal.Decimal `json:"liters,omitzero"`
		Comment      string          `json:"comment"`
		IsAutomated  bool            `json:"isAutomated,omitempty"`
		AutomationID string          `json:"automationId,omitempty"`
	}

	BreakdownItem struct {
		ID          string          `json:"id"`
		Category    string          `json:"category"`
		PartChanged string          `json:"partChanged"`
		Cause       string          `json:"cause"`
		Amount      decimal.Decimal `json:"amount"`
	}

	// DailyEntry is the activity record of one calendar day. NetRevenue is
	// derived from the other fields, see ComputeNetRevenue.
	DailyEntry struct {
		ID         string          `json:"id"`
		Date       Date            `json:"date"`
		DayType    DayType         `json:"dayType"`
		Revenue    decimal.Decimal `json:"revenue"`
		Expenses   []ExpenseItem   `json:"expenses"`
		Breakdowns []BreakdownItem `json:"breakdowns"`
		Comment    string          `json:"comment"`
		NetRevenue decimal.Decimal `json:"netRevenue"`
	}

	Debt struct {
		ID              string          `json:"id"`
		Supplier        string          `json:"supplier"`
		SupplierType    SupplierType    `json:"supplierType"`
		Part            string          `json:"part"`
		Amount          decimal.Decimal `json:"amount"`
		RemainingAmount decimal.Decimal `json:"remainingAmount"`
		DateCreated     Date            `json:"dateCreated"`
		DateDue         Date            `json:"dateDue"`
		Status          DebtStatus      `json:"status"`
		Notes           string          `json:"notes"`
	}

	ProvisionalDebt struct {
		ID             string            `json:"id"`
		Label          string            `json:"label"`
		OriginalDebtID string            `json:"originalDebtId,omitempty"`
		Amount         decimal.Decimal   `json:"amount"`
		DateCreated    Date              `json:"dateCreated"`
		Status         ProvisionalStatus `json:"status"`
		Notes          string            `json:"notes"`
	}

	AutomationTask struct {
		ID            string          `json:"id"`
		Name          string          `json:"name"`
		Category      string          `json:"category"`
		Subcategory   string          `json:"subcategory,omitempty"`
		Amount        decimal.Decimal `json:"amount"`
		Liters        decimal.Decimal `json:"liters,omitzero"`
		Frequency     Frequency       `json:"frequency"`
		IsActive      bool            `json:"isActive"`
		LastTriggered Date            `json:"lastTriggered,omitzero"`
		Comment       string          `json:"comment"`
	}

	Objective struct {
		ID           string          `json:"id"`
		Title        string          `json:"title"`
		Description  string          `json:"description"`
		TargetDate   Date            `json:"targetDate"`
		Amount       decimal.Decimal `json:"amount,omitzero"`
		Status       ObjectiveStatus `json:"status"`
		ReminderDays int             `json:"reminderDays"`
	}

	// Notification messages embed the id of the entity they refer to; RefID
	// carries the same id in structured form.
	Notification struct {
		ID      string           `json:"id"`
		Type    NotificationType `json:"type"`
		Message string           `json:"message"`
		RefID   string           `json:"refId,omitempty"`
		Date    time.Time        `json:"date"`
		Read    bool             `json:"read"`
	}

	Staff struct {
		DriverName        string `json:"driverName" yaml:"driverName"`
		DriverPhone       string `json:"driverPhone" yaml:"driverPhone"`
		ControllerName    string `json:"controllerName" yaml:"controllerName"`
		ControllerPhone   string `json:"controllerPhone" yaml:"controllerPhone"`
		CollaboratorName  string `json:"collaboratorName" yaml:"collaboratorName"`
		CollaboratorPhone string `json:"collaboratorPhone" yaml:"collaboratorPhone"`
	}

	Settings struct {
		Staff        Staff  `json:"staff" yaml:"staff"`
		Currency     string `json:"currency" yaml:"currency"`
		VehicleName  string `json:"vehicleName" yaml:"vehicleName"`
		VehiclePlate string `json:"vehiclePlate" yaml:"vehiclePlate"`
		OwnerName    string `json:"ownerName" yaml:"ownerName"`
	}

	// AppData is the aggregate persisted as a single document.
	AppData struct {
		DailyEntries     []DailyEntry      `json:"dailyEntries"`
		Debts            []Debt            `json:"debts"`
		ProvisionalDebts []ProvisionalDebt `json:"provisionalDebts"`
		Automations      []AutomationTask  `json:"automations"`
		Objectives       []Objective       `json:"objectives"`
		Notifications    []Notification    `json:"notifications"`
		Settings         Settings          `json:"settings"`
		CashBalance      decimal.Decimal   `json:"cashBalance"`
	}
)

var (
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidDayType      = errors.New("invalid day type")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidFrequency    = errors.New("invalid frequency")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidSupplierType = errors.New("invalid supplier type")
	ErrEmptyField          = errors.New("required field is empty")
)

// NewID returns an opaque identifier for a new entity.
func NewID() string {
	return uuid.NewString()
}

func DefaultSettings() Settings {
	return Settings{
		Currency:    "Fr",
		VehicleName: "Toyota Hiace",
	}
}

// NewAppData returns an empty ledger with default settings.
func NewAppData() AppData {
	return AppData{
		DailyEntries:     []DailyEntry{},
		Debts:            []Debt{},
		ProvisionalDebts: []ProvisionalDebt{},
		Automations:      []AutomationTask{},
		Objectives:       []Objective{},
		Notifications:    []Notification{},
		Settings:         DefaultSettings(),
		CashBalance:      decimal.Zero,
	}
}

func (t DayType) Valid() bool {
	switch t {
	case DayNormal, DayMaintenance, DayInactive:
		return true
	}
	return false
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

func (s SupplierType) Valid() bool {
	switch s {
	case SupplierMechanic, SupplierWholesaler, SupplierOther:
		return true
	}
	return false
}

func (s DebtStatus) Valid() bool {
	switch s {
	case DebtPending, DebtPartial, DebtPaid:
		return true
	}
	return false
}

func (s ProvisionalStatus) Valid() bool {
	switch s {
	case ProvisionalPending, ProvisionalConfirmed, ProvisionalCancelled:
		return true
	}
	return false
}

func (s ObjectiveStatus) Valid() bool {
	switch s {
	case ObjectivePending, ObjectiveDone, ObjectiveLate:
		return true
	}
	return false
}

// EffectiveReminderDays returns the reminder lead time, falling back to
// DefaultReminderDays when none is set.
func (o Objective) EffectiveReminderDays() int {
	if o.ReminderDays <= 0 {
		return DefaultReminderDays
	}
	return o.ReminderDays
}

func (e DailyEntry) Validate() error {
	if e.Date.IsZero() {
		return fmt.Errorf("%w: entry date is required", ErrInvalidDate)
	}
	if !e.DayType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDayType, e.DayType)
	}
	if e.Revenue.IsNegative() {
		return ErrInvalidAmount
	}
	for _, x := range e.Expenses {
		if x.Amount.IsNegative() {
			return fmt.Errorf("%w: expense %s", ErrInvalidAmount, x.ID)
		}
	}
	for _, b := range e.Breakdowns {
		if b.Amount.IsNegative() {
			return fmt.Errorf("%w: breakdown %s", ErrInvalidAmount, b.ID)
		}
	}
	return nil
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Supplier) == "" {
		return fmt.Errorf("%w: supplier", ErrEmptyField)
	}
	if strings.TrimSpace(d.Part) == "" {
		return fmt.Errorf("%w: part", ErrEmptyField)
	}
	if !d.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !d.SupplierType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSupplierType, d.SupplierType)
	}
	if !d.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}
	return nil
}

func (p ProvisionalDebt) Validate() error {
	if strings.TrimSpace(p.Label) == "" {
		return fmt.Errorf("%w: label", ErrEmptyField)
	}
	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, p.Status)
	}
	return nil
}

func (a AutomationTask) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: name", ErrEmptyField)
	}
	if strings.TrimSpace(a.Category) == "" {
		return fmt.Errorf("%w: category", ErrEmptyField)
	}
	if a.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !a.Frequency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, a.Frequency)
	}
	return nil
}

func (o Objective) Validate() error {
	if strings.TrimSpace(o.Title) == "" {
		return fmt.Errorf("%w: title", ErrEmptyField)
	}
	if o.TargetDate.IsZero() {
		return fmt.Errorf("%w: target date is required", ErrInvalidDate)
	}
	if !o.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, o.Status)
	}
	return nil
}

// Clone returns a deep copy of the entry.
func (e DailyEntry) Clone() DailyEntry {
	out := e
	out.Expenses = append([]ExpenseItem{}, e.Expenses...)
	out.Breakdowns = append([]BreakdownItem{}, e.Breakdowns...)
	return out
}

// Clone returns a deep copy of the aggregate.
func (a AppData) Clone() AppData {
	out := a
	out.DailyEntries = make([]DailyEntry, len(a.DailyEntries))
	for i, e := range a.DailyEntries {
		out.DailyEntries[i] = e.Clone()
	}
	out.Debts = append([]Debt{}, a.Debts...)
	out.ProvisionalDebts = append([]ProvisionalDebt{}, a.ProvisionalDebts...)
	out.Automations = append([]AutomationTask{}, a.Automations...)
	out.Objectives = append([]Objective{}, a.Objectives...)
	out.Notifications = append([]Notification{}, a.Notifications...)
	return out
}
