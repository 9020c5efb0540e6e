package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/validation"
)

func ptr(f float64) *float64 { return &f }

func newTestService() Service {
	return NewService(DefaultRegistry(), DefaultPredicates(), zap.NewNop())
}

// readyDoc satisfies every requirement in the default table.
func readyDoc() purchaseorder.TransitionDocument {
	return purchaseorder.TransitionDocument{
		PurchaseOrder: purchaseorder.PurchaseOrder{
			Header: purchaseorder.Header{
				PONumber:  "PO-1001",
				OCNumber:  "OC-77",
				OrderDate: "2024-03-01",
				Status:    purchaseorder.StatusUploaded,
				DeliveryInfo: &purchaseorder.DeliveryInfo{
					Date:         "2024-03-10",
					ActualDate:   "2024-03-09",
					Instructions: "Dock 4",
				},
			},
			Products: []purchaseorder.Product{
				{SUPC: "100", Quantity: 2, FOBCost: 10.5, Total: 21},
				{SUPC: "200", Quantity: 1, FOBCost: 4, Total: 4},
			},
			Weights:   &purchaseorder.Weights{GrossWeight: ptr(60), NetWeight: ptr(50)},
			TotalCost: 25,
		},
		Notes: "customer request",
	}
}

func TestValidateTransition_DataVerifiedFails(t *testing.T) {
	svc := newTestService()
	doc := readyDoc()
	doc.ValidationErrors = []string{"orderDate could not be read"}

	result := svc.ValidateTransition(context.Background(), purchaseorder.StatusUploaded, purchaseorder.StatusConfirmed, doc)

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, validation.StatusError, result.Errors[0].Type)
	assert.Equal(t, "Requirement not met: dataVerified", result.Errors[0].Message)
	require.NotNil(t, result.Context)
	assert.Equal(t, "UPLOADED", result.Context.CurrentStatus)
	assert.Equal(t, []string{"CONFIRMED", "CANCELLED"}, result.Context.ValidTransitions)
}

func TestValidateTransition_FromTerminalStatus(t *testing.T) {
	svc := newTestService()

	result := svc.ValidateTransition(context.Background(), purchaseorder.StatusDelivered, purchaseorder.StatusConfirmed, readyDoc())

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Invalid status transition: DELIVERED -> CONFIRMED", result.Errors[0].Message)
	require.NotNil(t, result.Context)
	assert.Empty(t, result.Context.ValidTransitions)
	assert.NotNil(t, result.Context.ValidTransitions)
}

func TestValidateTransition_UnknownStatuses(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tests := []struct {
		name    string
		current purchaseorder.Status
		next    purchaseorder.Status
		message string
	}{
		{"unknown current", "ARCHIVED", purchaseorder.StatusConfirmed, "Invalid current status"},
		{"unknown next", purchaseorder.StatusUploaded, "ARCHIVED", "Invalid next status"},
		{"empty current", "", purchaseorder.StatusConfirmed, "Invalid current status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.ValidateTransition(ctx, tt.current, tt.next, readyDoc())
			assert.False(t, result.Valid)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, validation.StatusError, result.Errors[0].Type)
			assert.Equal(t, tt.message, result.Errors[0].Message)
		})
	}
}

func TestValidateTransition_HappyPath(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	doc := readyDoc()

	path := []purchaseorder.Status{
		purchaseorder.StatusUploaded,
		purchaseorder.StatusConfirmed,
		purchaseorder.StatusShipped,
		purchaseorder.StatusInvoiced,
		purchaseorder.StatusDelivered,
	}
	for i := 1; i < len(path); i++ {
		result := svc.ValidateTransition(ctx, path[i-1], path[i], doc)
		assert.True(t, result.Valid, "%s -> %s: %v", path[i-1], path[i], result.Messages())
		assert.Empty(t, result.Warnings)
		assert.Empty(t, result.Info)
	}
}

func TestValidateTransition_LevelsAreDispatched(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	t.Run("optional failure is info", func(t *testing.T) {
		doc := readyDoc()
		doc.Header.OCNumber = ""
		result := svc.ValidateTransition(ctx, purchaseorder.StatusUploaded, purchaseorder.StatusConfirmed, doc)
		assert.True(t, result.Valid)
		require.Len(t, result.Info, 1)
		assert.Equal(t, "Requirement not met: ocNumberAssigned", result.Info[0].Message)
	})

	t.Run("recommended failure is a warning", func(t *testing.T) {
		doc := readyDoc()
		doc.Header.DeliveryInfo.Instructions = ""
		result := svc.ValidateTransition(ctx, purchaseorder.StatusConfirmed, purchaseorder.StatusShipped, doc)
		assert.True(t, result.Valid)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, "Requirement not met: deliveryInstructions", result.Warnings[0].Message)
	})
}

func TestValidateTransition_MandatoryRequirements(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tests := []struct {
		name    string
		from    purchaseorder.Status
		to      purchaseorder.Status
		mutate  func(*purchaseorder.TransitionDocument)
		message string
	}{
		{
			name: "costs not reconciled",
			from: purchaseorder.StatusUploaded, to: purchaseorder.StatusConfirmed,
			mutate:  func(d *purchaseorder.TransitionDocument) { d.TotalCost = 30 },
			message: "Requirement not met: costsReconciled",
		},
		{
			name: "line total wrong",
			from: purchaseorder.StatusUploaded, to: purchaseorder.StatusConfirmed,
			mutate:  func(d *purchaseorder.TransitionDocument) { d.Products[0].Total = 20 },
			message: "Requirement not met: costsReconciled",
		},
		{
			name: "weights inverted",
			from: purchaseorder.StatusConfirmed, to: purchaseorder.StatusShipped,
			mutate:  func(d *purchaseorder.TransitionDocument) { d.Weights.GrossWeight = ptr(40) },
			message: "Requirement not met: weightsRecorded",
		},
		{
			name: "no delivery date",
			from: purchaseorder.StatusConfirmed, to: purchaseorder.StatusShipped,
			mutate:  func(d *purchaseorder.TransitionDocument) { d.Header.DeliveryInfo.Date = "" },
			message: "Requirement not met: deliveryScheduled",
		},
		{
			name: "zero invoice",
			from: purchaseorder.StatusShipped, to: purchaseorder.StatusInvoiced,
			mutate: func(d *purchaseorder.TransitionDocument) {
				d.Products = nil
				d.TotalCost = 0
			},
			message: "Requirement not met: invoiceTotalPositive",
		},
		{
			name: "not yet delivered",
			from: purchaseorder.StatusInvoiced, to: purchaseorder.StatusDelivered,
			mutate:  func(d *purchaseorder.TransitionDocument) { d.Header.DeliveryInfo.ActualDate = "" },
			message: "Requirement not met: deliveryConfirmed",
		},
		{
			name: "cancel without notes",
			from: purchaseorder.StatusShipped, to: purchaseorder.StatusCancelled,
			mutate:  func(d *purchaseorder.TransitionDocument) { d.Notes = "  " },
			message: "Requirement not met: cancellationNotes",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := readyDoc()
			tt.mutate(&doc)
			result := svc.ValidateTransition(ctx, tt.from, tt.to, doc)
			assert.False(t, result.Valid)
			assert.Contains(t, result.Messages(), tt.message)
		})
	}
}

func TestValidateTransition_PredicatePanicBecomesBusinessRule(t *testing.T) {
	predicates := DefaultPredicates().Register(purchaseorder.StatusInvoiced, ReqInvoiceTotalPositive,
		func(purchaseorder.TransitionDocument) bool { panic("boom") })
	svc := NewService(DefaultRegistry(), predicates, zap.NewNop())

	var result validation.Result
	require.NotPanics(t, func() {
		result = svc.ValidateTransition(context.Background(), purchaseorder.StatusShipped, purchaseorder.StatusInvoiced, readyDoc())
	})

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, validation.BusinessRule, result.Errors[0].Type)
	assert.Equal(t, ReqInvoiceTotalPositive, result.Errors[0].Details["requirement"])
}

func TestValidateTransition_PredicateFailureFollowsLevel(t *testing.T) {
	boom := func(purchaseorder.TransitionDocument) bool { panic("boom") }
	ctx := context.Background()

	t.Run("optional", func(t *testing.T) {
		predicates := DefaultPredicates().Register("", ReqOCNumberAssigned, boom)
		svc := NewService(DefaultRegistry(), predicates, zap.NewNop())

		result := svc.ValidateTransition(ctx, purchaseorder.StatusUploaded, purchaseorder.StatusConfirmed, readyDoc())

		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
		assert.Empty(t, result.Warnings)
		require.Len(t, result.Info, 1)
		assert.Equal(t, validation.BusinessRule, result.Info[0].Type)
		assert.Equal(t, ReqOCNumberAssigned, result.Info[0].Details["requirement"])
	})

	t.Run("recommended", func(t *testing.T) {
		predicates := DefaultPredicates().Register("", ReqDeliveryInstructions, boom)
		svc := NewService(DefaultRegistry(), predicates, zap.NewNop())

		result := svc.ValidateTransition(ctx, purchaseorder.StatusConfirmed, purchaseorder.StatusShipped, readyDoc())

		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, validation.BusinessRule, result.Warnings[0].Type)
		assert.Equal(t, ReqDeliveryInstructions, result.Warnings[0].Details["requirement"])
	})
}

func TestValidateTransition_MissingPredicate(t *testing.T) {
	svc := NewService(DefaultRegistry(), NewPredicateTable(), zap.NewNop())

	result := svc.ValidateTransition(context.Background(), purchaseorder.StatusShipped, purchaseorder.StatusCancelled, readyDoc())

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, validation.BusinessRule, result.Errors[0].Type)
}

func TestLookups(t *testing.T) {
	svc := newTestService()

	assert.True(t, svc.IsValidStatus(purchaseorder.StatusShipped))
	assert.False(t, svc.IsValidStatus("shipped"))

	assert.Equal(t, []purchaseorder.Status{purchaseorder.StatusInvoiced, purchaseorder.StatusCancelled},
		svc.AvailableTransitions(purchaseorder.StatusShipped))
	assert.Empty(t, svc.AvailableTransitions("NOPE"))
	assert.NotNil(t, svc.AvailableTransitions("NOPE"))

	reqs := svc.StatusRequirements(purchaseorder.StatusShipped)
	require.Len(t, reqs, 4)
	assert.Equal(t, ReqCostsReconciled, reqs[0].Name)
	assert.Empty(t, svc.StatusRequirements("NOPE"))

	defs := svc.Definitions()
	require.Len(t, defs, len(purchaseorder.Statuses))
	for i, d := range defs {
		assert.Equal(t, purchaseorder.Statuses[i], d.Name)
	}
}

func TestRegistry_TerminalAndInitialFlags(t *testing.T) {
	reg := DefaultRegistry()
	initial := 0
	for _, d := range reg.Definitions() {
		if d.Metadata.IsInitial {
			initial++
			assert.Equal(t, purchaseorder.StatusUploaded, d.Name)
		}
		assert.Equal(t, d.Metadata.IsTerminal, len(d.AllowedTransitions) == 0, d.Name)
	}
	assert.Equal(t, 1, initial)
}

func TestRegistry_AllowedTransitionsReturnsCopy(t *testing.T) {
	reg := DefaultRegistry()
	got := reg.AllowedTransitions(purchaseorder.StatusUploaded)
	got[0] = purchaseorder.StatusDelivered
	assert.Equal(t, purchaseorder.StatusConfirmed, reg.AllowedTransitions(purchaseorder.StatusUploaded)[0])
}

func TestPredicatesResolveForEveryRequirement(t *testing.T) {
	reg := DefaultRegistry()
	preds := DefaultPredicates()
	for _, d := range reg.Definitions() {
		for _, req := range d.Requirements {
			_, ok := preds.Resolve(d.Name, req.Name)
			assert.True(t, ok, "%s/%s", d.Name, req.Name)
		}
	}
}

func TestAvailableTransitionsProperty(t *testing.T) {
	svc := newTestService()
	rapid.Check(t, func(t *rapid.T) {
		status := rapid.OneOf(
			rapid.SampledFrom(purchaseorder.Statuses),
			rapid.Map(rapid.String(), func(s string) purchaseorder.Status { return purchaseorder.Status(s) }),
		).Draw(t, "status")

		seen := map[purchaseorder.Status]bool{}
		for _, next := range svc.AvailableTransitions(status) {
			if next == status {
				t.Fatalf("self loop on %s", status)
			}
			if !next.IsValid() {
				t.Fatalf("unknown target %s from %s", next, status)
			}
			if seen[next] {
				t.Fatalf("duplicate target %s from %s", next, status)
			}
			seen[next] = true
		}
	})
}

func TestAcceptedTransitionsKeepCostsReconciled(t *testing.T) {
	svc := newTestService()
	targets := []purchaseorder.Status{
		purchaseorder.StatusConfirmed,
		purchaseorder.StatusShipped,
		purchaseorder.StatusInvoiced,
		purchaseorder.StatusDelivered,
	}
	rapid.Check(t, func(t *rapid.T) {
		doc := readyDoc()
		n := rapid.IntRange(1, 5).Draw(t, "products")
		doc.Products = nil
		var sum float64
		for i := 0; i < n; i++ {
			qty := float64(rapid.IntRange(1, 50).Draw(t, "qty"))
			cost := float64(rapid.IntRange(0, 10000).Draw(t, "cents")) / 100
			doc.Products = append(doc.Products, purchaseorder.Product{SUPC: "X", Quantity: qty, FOBCost: cost, Total: qty * cost})
			sum += qty * cost
		}
		doc.TotalCost = sum + float64(rapid.IntRange(-300, 300).Draw(t, "driftCents"))/100

		idx := rapid.IntRange(0, len(targets)-1).Draw(t, "target")
		from := purchaseorder.StatusUploaded
		if idx > 0 {
			from = targets[idx-1]
		}
		result := svc.ValidateTransition(context.Background(), from, targets[idx], doc)
		if result.Valid && !validation.ApproxEqual(doc.TotalCost, doc.ProductsTotal()) {
			t.Fatalf("accepted %s with totalCost %.2f vs products %.2f", targets[idx], doc.TotalCost, doc.ProductsTotal())
		}
	})
}
