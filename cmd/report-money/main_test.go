package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	eventdomain "github.com/pyar/asocmembers/internal/event/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fakeEvents struct {
	eventdomain.Service

	event   eventdomain.Event
	findErr error
	report  eventdomain.MoneyReport
	asked   snowflake.ID
}

func (f *fakeEvents) FindEvent(context.Context, []string) (eventdomain.Event, error) {
	return f.event, f.findErr
}

func (f *fakeEvents) MoneyReport(_ context.Context, id snowflake.ID) (eventdomain.MoneyReport, error) {
	f.asked = id
	return f.report, nil
}

func TestRunPrintsReport(t *testing.T) {
	events := &fakeEvents{
		event: eventdomain.Event{ID: 7, Name: "PyCon 2024"},
		report: eventdomain.MoneyReport{
			Event: "PyCon 2024",
			Incomes: []eventdomain.IncomeLine{
				{Sponsorship: "ACME (Gold)", Payment: eventdomain.PaymentComplete, Amount: decimal.NewFromInt(1000)},
			},
			IncomeBase: decimal.NewFromInt(1000),
			Available:  decimal.RequireFromString("1234.5"),
			Warnings:   []string{"expenses not found"},
		},
	}

	var out bytes.Buffer
	err := run(context.Background(), &out, events, []string{"PyCon"})

	assert.NoError(t, err)
	assert.Equal(t, snowflake.ID(7), events.asked)
	text := out.String()
	assert.Contains(t, text, `### Money report for event "PyCon 2024"`)
	assert.Contains(t, text, "WARNING!!! expenses not found")
	assert.Contains(t, text, "ACME (Gold)")
	assert.Contains(t, text, "Available:          1234.50")
	assert.NotContains(t, text, "Detailed expenses:")
}

func TestRunListsCandidatesWhenAmbiguous(t *testing.T) {
	events := &fakeEvents{
		findErr: &eventdomain.EventLookupError{
			Err:        eventdomain.ErrAmbiguousEvent,
			Candidates: []eventdomain.Event{{Name: "PyDay 2023"}, {Name: "PyDay 2024"}},
		},
	}

	var out bytes.Buffer
	err := run(context.Background(), &out, events, []string{"PyDay"})

	assert.ErrorIs(t, err, eventdomain.ErrAmbiguousEvent)
	assert.Contains(t, out.String(), "too many matching events")
	assert.Contains(t, out.String(), `"PyDay 2024"`)
	assert.Zero(t, events.asked)
}

func TestRunListsEveryEventWhenNothingMatches(t *testing.T) {
	events := &fakeEvents{
		findErr: &eventdomain.EventLookupError{
			Err:        eventdomain.ErrEventNotFound,
			Candidates: []eventdomain.Event{{Name: "PyCamp 2019"}},
		},
	}

	var out bytes.Buffer
	err := run(context.Background(), &out, events, []string{"EuroPython"})

	assert.ErrorIs(t, err, eventdomain.ErrEventNotFound)
	assert.Contains(t, out.String(), "no matching events")
	assert.Contains(t, out.String(), `"PyCamp 2019"`)
}
