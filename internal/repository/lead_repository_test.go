package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLeadStoreSelection(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "postgres", NewLeadStore(db, t.TempDir()).Backend())
	assert.Equal(t, "file", NewLeadStore(nil, t.TempDir()).Backend())
	assert.Equal(t, "none", NewLeadStore(nil, "").Backend())
}

func TestUnconfiguredLeadStoreRejectsWrites(t *testing.T) {
	store := NewLeadStore(nil, "")
	ctx := context.Background()

	assert.NoError(t, store.Initialize(ctx))
	assert.ErrorIs(t, store.SaveContact(ctx, &domain.ContactSubmission{}), domain.ErrStoreNotConfigured)
	assert.ErrorIs(t, store.SaveQuotation(ctx, &domain.QuotationRequest{}), domain.ErrStoreNotConfigured)
}

func TestLeadRepositorySaveContact(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	submission := domain.NewContactSubmission(domain.ContactForm{
		Name:    "Ada",
		Email:   "ada@example.com",
		Message: "Do you ship to Lisbon?",
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contact_submissions")).
		WithArgs(submission.ID, "Ada", "ada@example.com", nil, nil, nil, "Do you ship to Lisbon?", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewLeadRepository(db).SaveContact(context.Background(), submission))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositorySaveQuotation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	request := domain.NewQuotationRequest(domain.QuotationForm{
		Name:       "Ada",
		Email:      "ada@example.com",
		Company:    "Roastery Ltd",
		Country:    "PT",
		CoffeeType: "Bourbon",
		Quantity:   "1 container",
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO quotation_requests")).
		WithArgs(request.ID, "Ada", "ada@example.com", nil, "Roastery Ltd", "PT", "Bourbon", "1 container",
			nil, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewLeadRepository(db).SaveQuotation(context.Background(), request))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileLeadStoreAppendsJSONLines(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "leads")
	store := NewFileLeadStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Initialize(ctx))

	for _, name := range []string{"Ada", "Grace"} {
		submission := domain.NewContactSubmission(domain.ContactForm{
			Name:    name,
			Email:   "lead@example.com",
			Message: "hello",
		})
		require.NoError(t, store.SaveContact(ctx, submission))
	}

	f, err := os.Open(filepath.Join(dir, contactFile))
	require.NoError(t, err)
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var got domain.ContactSubmission
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &got))
		names = append(names, got.Name)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"Ada", "Grace"}, names)
}

func TestFileLeadStoreQuotationFile(t *testing.T) {
	dir := t.TempDir()
	store := NewFileLeadStore(dir)

	request := domain.NewQuotationRequest(domain.QuotationForm{
		Name: "Ada", Email: "ada@example.com", Company: "Roastery Ltd",
		Country: "PT", CoffeeType: "Bourbon", Quantity: "60 bags",
	})
	require.NoError(t, store.SaveQuotation(context.Background(), request))

	data, err := os.ReadFile(filepath.Join(dir, quotationFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"coffeeType":"Bourbon"`)
	assert.Contains(t, string(data), request.ID)
}

func TestNotificationRepositoryWithoutDatabase(t *testing.T) {
	repo := NewNotificationRepository(nil)
	ctx := context.Background()

	n := domain.NewNotification(domain.NotificationRequest{Kind: domain.NotificationContactAck})
	assert.NoError(t, repo.Initialize(ctx))
	assert.NoError(t, repo.CreateNotification(ctx, n))
	assert.NoError(t, repo.UpdateNotification(ctx, n))

	found, err := repo.GetNotificationsByReference(ctx, "contact_1")
	assert.NoError(t, err)
	assert.Empty(t, found)
}
