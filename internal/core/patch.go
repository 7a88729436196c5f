package core

import "github.com/shopspring/decimal"

// Patches carry partial updates: a nil field leaves the target unchanged.
type (
	DailyEntryPatch struct {
		Date       *Date            `json:"date,omitempty"`
		DayType    *DayType         `json:"dayType,omitempty"`
		Revenue    *decimal.Decimal `json:"revenue,omitempty"`
		Expenses   *[]ExpenseItem   `json:"expenses,omitempty"`
		Breakdowns *[]BreakdownItem `json:"breakdowns,omitempty"`
		Comment    *string          `json:"comment,omitempty"`
	}

	DebtPatch struct {
		Supplier        *string          `json:"supplier,omitempty"`
		SupplierType    *SupplierType    `json:"supplierType,omitempty"`
		Part            *string          `json:"part,omitempty"`
		Amount          *decimal.Decimal `json:"amount,omitempty"`
		RemainingAmount *decimal.Decimal `json:"remainingAmount,omitempty"`
		DateCreated     *Date            `json:"dateCreated,omitempty"`
		DateDue         *Date            `json:"dateDue,omitempty"`
		Status          *DebtStatus      `json:"status,omitempty"`
		Notes           *string          `json:"notes,omitempty"`
	}

	ProvisionalDebtPatch struct {
		Label          *string            `json:"label,omitempty"`
		OriginalDebtID *string            `json:"originalDebtId,omitempty"`
		Amount         *decimal.Decimal   `json:"amount,omitempty"`
		DateCreated    *Date              `json:"dateCreated,omitempty"`
		Status         *ProvisionalStatus `json:"status,omitempty"`
		Notes          *string            `json:"notes,omitempty"`
	}

	AutomationPatch struct {
		Name          *string          `json:"name,omitempty"`
		Category      *string          `json:"category,omitempty"`
		Subcategory   *string          `json:"subcategory,omitempty"`
		Amount        *decimal.Decimal `json:"amount,omitempty"`
		Liters        *decimal.Decimal `json:"liters,omitempty"`
		Frequency     *Frequency       `json:"frequency,omitempty"`
		IsActive      *bool            `json:"isActive,omitempty"`
		LastTriggered *Date            `json:"lastTriggered,omitempty"`
		Comment       *string          `json:"comment,omitempty"`
	}

	ObjectivePatch struct {
		Title        *string          `json:"title,omitempty"`
		Description  *string          `json:"description,omitempty"`
		TargetDate   *Date            `json:"targetDate,omitempty"`
		Amount       *decimal.Decimal `json:"amount,omitempty"`
		Status       *ObjectiveStatus `json:"status,omitempty"`
		ReminderDays *int             `json:"reminderDays,omitempty"`
	}

	SettingsPatch struct {
		Staff        *Staff  `json:"staff,omitempty"`
		Currency     *string `json:"currency,omitempty"`
		VehicleName  *string `json:"vehicleName,omitempty"`
		VehiclePlate *string `json:"vehiclePlate,omitempty"`
		OwnerName    *string `json:"ownerName,omitempty"`
	}
)

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Apply returns e with the patch merged in. NetRevenue is not recomputed
// here; the ledger owns that step.
func (p DailyEntryPatch) Apply(e DailyEntry) DailyEntry {
	out := e.Clone()
	set(&out.Date, p.Date)
	set(&out.DayType, p.DayType)
	set(&out.Revenue, p.Revenue)
	if p.Expenses != nil {
		out.Expenses = append([]ExpenseItem{}, (*p.Expenses)...)
	}
	if p.Breakdowns != nil {
		out.Breakdowns = append([]BreakdownItem{}, (*p.Breakdowns)...)
	}
	set(&out.Comment, p.Comment)
	return out
}

func (p DebtPatch) Apply(d Debt) Debt {
	set(&d.Supplier, p.Supplier)
	set(&d.SupplierType, p.SupplierType)
	set(&d.Part, p.Part)
	set(&d.Amount, p.Amount)
	set(&d.RemainingAmount, p.RemainingAmount)
	set(&d.DateCreated, p.DateCreated)
	set(&d.DateDue, p.DateDue)
	set(&d.Status, p.Status)
	set(&d.Notes, p.Notes)
	return d
}

func (p ProvisionalDebtPatch) Apply(d ProvisionalDebt) ProvisionalDebt {
	set(&d.Label, p.Label)
	set(&d.OriginalDebtID, p.OriginalDebtID)
	set(&d.Amount, p.Amount)
	set(&d.DateCreated, p.DateCreated)
	set(&d.Status, p.Status)
	set(&d.Notes, p.Notes)
	return d
}

func (p AutomationPatch) Apply(a AutomationTask) AutomationTask {
	set(&a.Name, p.Name)
	set(&a.Category, p.Category)
	set(&a.Subcategory, p.Subcategory)
	set(&a.Amount, p.Amount)
	set(&a.Liters, p.Liters)
	set(&a.Frequency, p.Frequency)
	set(&a.IsActive, p.IsActive)
	set(&a.LastTriggered, p.LastTriggered)
	set(&a.Comment, p.Comment)
	return a
}

func (p ObjectivePatch) Apply(o Objective) Objective {
	set(&o.Title, p.Title)
	set(&o.Description, p.Description)
	set(&o.TargetDate, p.TargetDate)
	set(&o.Amount, p.Amount)
	set(&o.Status, p.Status)
	set(&o.ReminderDays, p.ReminderDays)
	return o
}

func (p SettingsPatch) Apply(s Settings) Settings {
	set(&s.Staff, p.Staff)
	set(&s.Currency, p.Currency)
	set(&s.VehicleName, p.VehicleName)
	set(&s.VehiclePlate, p.VehiclePlate)
	set(&s.OwnerName, p.OwnerName)
	return s
}
