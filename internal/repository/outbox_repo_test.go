package repository_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fundsledger/internal/model"
	"fundsledger/internal/repository"
	"fundsledger/internal/testutil"

	"gorm.io/gorm"
)

func seedOutbox(t *testing.T, db *gorm.DB, eventNos ...string) {
	t.Helper()
	for _, no := range eventNos {
		msg := &model.OutboxMessage{EventNo: no, SubjectID: "uid-1", Kind: model.BalanceEventDebit, Topic: "t", Payload: "{}"}
		if err := db.Create(msg).Error; err != nil {
			t.Fatalf("seed %s: %v", no, err)
		}
	}
}

func TestOutboxPendingInCommitOrder(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenSQLite(t)
	seedOutbox(t, db, "EVT-a", "EVT-b", "EVT-c")
	repo := repository.NewOutboxRepository(db)

	pending, err := repo.Pending(ctx, 2)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 2 || pending[0].EventNo != "EVT-a" || pending[1].EventNo != "EVT-b" {
		t.Fatalf("pending = %+v", pending)
	}

	if err := repo.MarkSent(ctx, pending[0].ID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	var sent model.OutboxMessage
	if err := db.First(&sent, pending[0].ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if sent.Status != model.OutboxStatusSent || sent.SentAt == nil {
		t.Errorf("sent row = %+v", sent)
	}

	pending, err = repo.Pending(ctx, 10)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 2 || pending[0].EventNo != "EVT-b" {
		t.Fatalf("pending after send = %+v", pending)
	}
}

func TestOutboxRecordFailureParksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenSQLite(t)
	seedOutbox(t, db, "EVT-a")
	repo := repository.NewOutboxRepository(db)

	pending, err := repo.Pending(ctx, 1)
	if err != nil || len(pending) != 1 {
		t.Fatalf("Pending = %v, %v", pending, err)
	}
	msg := pending[0]

	parked, err := repo.RecordFailure(ctx, msg, errors.New("broker down"), 2)
	if err != nil || parked {
		t.Fatalf("first failure: parked = %v, err = %v", parked, err)
	}
	parked, err = repo.RecordFailure(ctx, msg, errors.New(strings.Repeat("x", 600)), 2)
	if err != nil || !parked {
		t.Fatalf("second failure: parked = %v, err = %v", parked, err)
	}

	var row model.OutboxMessage
	if err := db.First(&row, msg.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if row.Status != model.OutboxStatusFailed || row.Attempts != 2 || len(row.LastError) != 512 {
		t.Errorf("row = status %s, attempts %d, last_error len %d", row.Status, row.Attempts, len(row.LastError))
	}

	if pending, _ := repo.Pending(ctx, 10); len(pending) != 0 {
		t.Errorf("parked event still pending")
	}
}

func TestOutboxEventNoUnique(t *testing.T) {
	db := testutil.OpenSQLite(t)
	seedOutbox(t, db, "EVT-a")

	err := db.Create(&model.OutboxMessage{EventNo: "EVT-a", SubjectID: "uid-1", Kind: model.BalanceEventCredit, Topic: "t", Payload: "{}"}).Error
	if err == nil {
		t.Fatal("duplicate event number accepted")
	}
}
