// Package http provides the JSON API over the ledger.
//
// This file implements request decoding: body size limits, lenient amount
// fields and the request shapes mapped onto domain values and patches.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hiace/internal/core"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// decodeJSON reads one JSON value from the request body. Unknown fields are
// rejected.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return errors.New("request body too large")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("request body is empty")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// Amount accepts a JSON number or a string and coerces it the lenient way:
// grouped thousands and decimal commas are understood, anything else is zero.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = str
	}
	a.Decimal = core.ParseAmount(s)
	return nil
}

func (a *Amount) ptr() *decimal.Decimal {
	if a == nil {
		return nil
	}
	d := a.Decimal
	return &d
}

// Entries

type expenseItemRequest struct {
	ID           string `json:"id"`
	Category     string `json:"category"`
	Subcategory  string `json:"subcategory"`
	Amount       Amount `json:"amount"`
	Liters       Amount `json:"liters"`
	Comment      string `json:"comment"`
	IsAutomated  bool   `json:"isAutomated"`
	AutomationID string `json:"automationId"`
}

type breakdownItemRequest struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	PartChanged string `json:"partChanged"`
	Cause       string `json:"cause"`
	Amount      Amount `json:"amount"`
}

func expenseItems(in []expenseItemRequest) []core.ExpenseItem {
	out := make([]core.ExpenseItem, 0, len(in))
	for _, x := range in {
		id := x.ID
		if id == "" {
			id = core.NewID()
		}
		out = append(out, core.ExpenseItem{
			ID:           id,
			Category:     sanitizeInput(x.Category),
			Subcategory:  sanitizeInput(x.Subcategory),
			Amount:       x.Amount.Decimal,
			Liters:       x.Liters.Decimal,
			Comment:      sanitizeInput(x.Comment),
			IsAutomated:  x.IsAutomated,
			AutomationID: x.AutomationID,
		})
	}
	return out
}

func breakdownItems(in []breakdownItemRequest) []core.BreakdownItem {
	out := make([]core.BreakdownItem, 0, len(in))
	for _, b := range in {
		id := b.ID
		if id == "" {
			id = core.NewID()
		}
		out = append(out, core.BreakdownItem{
			ID:          id,
			Category:    sanitizeInput(b.Category),
			PartChanged: sanitizeInput(b.PartChanged),
			Cause:       sanitizeInput(b.Cause),
			Amount:      b.Amount.Decimal,
		})
	}
	return out
}

type entryRequest struct {
	Date       core.Date              `json:"date"`
	DayType    core.DayType           `json:"dayType"`
	Revenue    Amount                 `json:"revenue"`
	Expenses   []expenseItemRequest   `json:"expenses"`
	Breakdowns []breakdownItemRequest `json:"breakdowns"`
	Comment    string                 `json:"comment"`
}

func (req entryRequest) entry() core.DailyEntry {
	dayType := req.DayType
	if dayType == "" {
		dayType = core.DayNormal
	}
	return core.DailyEntry{
		Date:       req.Date,
		DayType:    dayType,
		Revenue:    req.Revenue.Decimal,
		Expenses:   expenseItems(req.Expenses),
		Breakdowns: breakdownItems(req.Breakdowns),
		Comment:    sanitizeInput(req.Comment),
	}
}

type entryPatchRequest struct {
	Date       *core.Date              `json:"date"`
	DayType    *core.DayType           `json:"dayType"`
	Revenue    *Amount                 `json:"revenue"`
	Expenses   *[]expenseItemRequest   `json:"expenses"`
	Breakdowns *[]breakdownItemRequest `json:"breakdowns"`
	Comment    *string                 `json:"comment"`
}

func (req entryPatchRequest) patch() core.DailyEntryPatch {
	p := core.DailyEntryPatch{
		Date:    req.Date,
		DayType: req.DayType,
		Revenue: req.Revenue.ptr(),
		Comment: sanitizedPtr(req.Comment),
	}
	if req.Expenses != nil {
		items := expenseItems(*req.Expenses)
		p.Expenses = &items
	}
	if req.Breakdowns != nil {
		items := breakdownItems(*req.Breakdowns)
		p.Breakdowns = &items
	}
	return p
}

// Debts

type debtRequest struct {
	Supplier        string            `json:"supplier"`
	SupplierType    core.SupplierType `json:"supplierType"`
	Part            string            `json:"part"`
	Amount          Amount            `json:"amount"`
	RemainingAmount *Amount           `json:"remainingAmount"`
	DateCreated     core.Date         `json:"dateCreated"`
	DateDue         core.Date         `json:"dateDue"`
	Status          core.DebtStatus   `json:"status"`
	Notes           string            `json:"notes"`
}

func (req debtRequest) debt(now time.Time) core.Debt {
	d := core.Debt{
		Supplier:        sanitizeInput(req.Supplier),
		SupplierType:    req.SupplierType,
		Part:            sanitizeInput(req.Part),
		Amount:          req.Amount.Decimal,
		RemainingAmount: req.Amount.Decimal,
		DateCreated:     req.DateCreated,
		DateDue:         req.DateDue,
		Status:          req.Status,
		Notes:           sanitizeInput(req.Notes),
	}
	if d.SupplierType == "" {
		d.SupplierType = core.SupplierOther
	}
	if req.RemainingAmount != nil {
		d.RemainingAmount = req.RemainingAmount.Decimal
	}
	d.ClampRemaining()
	if d.Status == "" {
		d.Status = core.DeriveDebtStatus(d.Amount, d.RemainingAmount)
	}
	// Status may have been set explicitly; paid settles the balance.
	d.ClampRemaining()
	if d.DateCreated.IsZero() {
		d.DateCreated = core.DateOf(now)
	}
	return d
}

type debtPatchRequest struct {
	Supplier        *string            `json:"supplier"`
	SupplierType    *core.SupplierType `json:"supplierType"`
	Part            *string            `json:"part"`
	Amount          *Amount            `json:"amount"`
	RemainingAmount *Amount            `json:"remainingAmount"`
	DateCreated     *core.Date         `json:"dateCreated"`
	DateDue         *core.Date         `json:"dateDue"`
	Status          *core.DebtStatus   `json:"status"`
	Notes           *string            `json:"notes"`
}

func (req debtPatchRequest) patch() core.DebtPatch {
	return core.DebtPatch{
		Supplier:        sanitizedPtr(req.Supplier),
		SupplierType:    req.SupplierType,
		Part:            sanitizedPtr(req.Part),
		Amount:          req.Amount.ptr(),
		RemainingAmount: req.RemainingAmount.ptr(),
		DateCreated:     req.DateCreated,
		DateDue:         req.DateDue,
		Status:          req.Status,
		Notes:           sanitizedPtr(req.Notes),
	}
}

type paymentRequest struct {
	Amount   Amount `json:"amount"`
	FromCash bool   `json:"fromCash"`
}

// Provisional debts

type provisionalDebtRequest struct {
	Label          string                 `json:"label"`
	OriginalDebtID string                 `json:"originalDebtId"`
	Amount         Amount                 `json:"amount"`
	DateCreated    core.Date              `json:"dateCreated"`
	Status         core.ProvisionalStatus `json:"status"`
	Notes          string                 `json:"notes"`
}

func (req provisionalDebtRequest) provisionalDebt(now time.Time) core.ProvisionalDebt {
	p := core.ProvisionalDebt{
		Label:          sanitizeInput(req.Label),
		OriginalDebtID: req.OriginalDebtID,
		Amount:         req.Amount.Decimal,
		DateCreated:    req.DateCreated,
		Status:         req.Status,
		Notes:          sanitizeInput(req.Notes),
	}
	if p.Status == "" {
		p.Status = core.ProvisionalPending
	}
	if p.DateCreated.IsZero() {
		p.DateCreated = core.DateOf(now)
	}
	return p
}

type provisionalDebtPatchRequest struct {
	Label          *string                 `json:"label"`
	OriginalDebtID *string                 `json:"originalDebtId"`
	Amount         *Amount                 `json:"amount"`
	DateCreated    *core.Date              `json:"dateCreated"`
	Status         *core.ProvisionalStatus `json:"status"`
	Notes          *string                 `json:"notes"`
}

func (req provisionalDebtPatchRequest) patch() core.ProvisionalDebtPatch {
	return core.ProvisionalDebtPatch{
		Label:          sanitizedPtr(req.Label),
		OriginalDebtID: req.OriginalDebtID,
		Amount:         req.Amount.ptr(),
		DateCreated:    req.DateCreated,
		Status:         req.Status,
		Notes:          sanitizedPtr(req.Notes),
	}
}

// Automations

type automationRequest struct {
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Subcategory string         `json:"subcategory"`
	Amount      Amount         `json:"amount"`
	Liters      Amount         `json:"liters"`
	Frequency   core.Frequency `json:"frequency"`
	IsActive    *bool          `json:"isActive"`
	Comment     string         `json:"comment"`
}

func (req automationRequest) automation() core.AutomationTask {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return core.AutomationTask{
		Name:        sanitizeInput(req.Name),
		Category:    sanitizeInput(req.Category),
		Subcategory: sanitizeInput(req.Subcategory),
		Amount:      req.Amount.Decimal,
		Liters:      req.Liters.Decimal,
		Frequency:   req.Frequency,
		IsActive:    active,
		Comment:     sanitizeInput(req.Comment),
	}
}

type automationPatchRequest struct {
	Name          *string         `json:"name"`
	Category      *string         `json:"category"`
	Subcategory   *string         `json:"subcategory"`
	Amount        *Amount         `json:"amount"`
	Liters        *Amount         `json:"liters"`
	Frequency     *core.Frequency `json:"frequency"`
	IsActive      *bool           `json:"isActive"`
	LastTriggered *core.Date      `json:"lastTriggered"`
	Comment       *string         `json:"comment"`
}

func (req automationPatchRequest) patch() core.AutomationPatch {
	return core.AutomationPatch{
		Name:          sanitizedPtr(req.Name),
		Category:      sanitizedPtr(req.Category),
		Subcategory:   sanitizedPtr(req.Subcategory),
		Amount:        req.Amount.ptr(),
		Liters:        req.Liters.ptr(),
		Frequency:     req.Frequency,
		IsActive:      req.IsActive,
		LastTriggered: req.LastTriggered,
		Comment:       sanitizedPtr(req.Comment),
	}
}

// Objectives

type objectiveRequest struct {
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	TargetDate   core.Date            `json:"targetDate"`
	Amount       Amount               `json:"amount"`
	Status       core.ObjectiveStatus `json:"status"`
	ReminderDays int                  `json:"reminderDays"`
}

func (req objectiveRequest) objective() core.Objective {
	o := core.Objective{
		Title:        sanitizeInput(req.Title),
		Description:  sanitizeInput(req.Description),
		TargetDate:   req.TargetDate,
		Amount:       req.Amount.Decimal,
		Status:       req.Status,
		ReminderDays: req.ReminderDays,
	}
	if o.Status == "" {
		o.Status = core.ObjectivePending
	}
	return o
}

type objectivePatchRequest struct {
	Title        *string               `json:"title"`
	Description  *string               `json:"description"`
	TargetDate   *core.Date            `json:"targetDate"`
	Amount       *Amount               `json:"amount"`
	Status       *core.ObjectiveStatus `json:"status"`
	ReminderDays *int                  `json:"reminderDays"`
}

func (req objectivePatchRequest) patch() core.ObjectivePatch {
	return core.ObjectivePatch{
		Title:        sanitizedPtr(req.Title),
		Description:  sanitizedPtr(req.Description),
		TargetDate:   req.TargetDate,
		Amount:       req.Amount.ptr(),
		Status:       req.Status,
		ReminderDays: req.ReminderDays,
	}
}

// Cash and settings

type cashRequest struct {
	Amount Amount `json:"amount"`
}

type settingsPatchRequest struct {
	Staff        *core.Staff `json:"staff"`
	Currency     *string     `json:"currency"`
	VehicleName  *string     `json:"vehicleName"`
	VehiclePlate *string     `json:"vehiclePlate"`
	OwnerName    *string     `json:"ownerName"`
}

func (req settingsPatchRequest) patch() core.SettingsPatch {
	return core.SettingsPatch{
		Staff:        req.Staff,
		Currency:     sanitizedPtr(req.Currency),
		VehicleName:  sanitizedPtr(req.VehicleName),
		VehiclePlate: sanitizedPtr(req.VehiclePlate),
		OwnerName:    sanitizedPtr(req.OwnerName),
	}
}

// Query parameters

// ParsePeriod resolves the summary period from year/month or days. With no
// parameters the current month is used.
func ParsePeriod(query url.Values, now time.Time) (core.Period, error) {
	if v := strings.TrimSpace(query.Get("days")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 3660 {
			return core.Period{}, fmt.Errorf("invalid days %q", v)
		}
		return core.TrailingDays(now, n), nil
	}
	if strings.TrimSpace(query.Get("all")) == "true" {
		return core.AllTime(), nil
	}

	year, month := now.Year(), int(now.Month())
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1970 || y > 9999 {
			return core.Period{}, fmt.Errorf("invalid year %q", v)
		}
		year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return core.Period{}, fmt.Errorf("invalid month %q", v)
		}
		month = m
	}
	return core.MonthPeriod(year, month), nil
}

// ParseDateParam reads a YYYY-MM-DD query parameter, defaulting to the date
// of now.
func ParseDateParam(query url.Values, key string, now time.Time) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return core.DateOf(now), nil
	}
	return core.ParseDate(v)
}
