package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/giftledger/internal/domain"
	"github.com/iho/giftledger/internal/usecase"
	"github.com/iho/giftledger/internal/usecase/mocks"
)

func TestExportUseCase_EncodesAscendingTotals(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	entryRepo := mocks.NewMockEntryRepository(ctrl)
	entryRepo.EXPECT().List(gomock.Any()).Return([]*domain.Entry{
		{Seq: 2, Name: "Lee", Amount: decimal.NewFromInt(10)},
		{Seq: 1, Name: "Kim", Amount: decimal.NewFromInt(5)},
	}, nil)

	encoder := mocks.NewMockEntryEncoder(ctrl)
	encoder.EXPECT().Encode(gomock.Any(), gomock.Any()).DoAndReturn(func(w io.Writer, rows []domain.TotaledEntry) error {
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		if rows[0].Entry.Seq != 1 || !rows[1].RunningTotal.Equal(decimal.NewFromInt(15)) {
			t.Fatalf("expected ascending rows with cumulative totals, got %+v", rows)
		}
		_, err := w.Write([]byte("ok"))
		return err
	})

	ledger := usecase.NewLedgerUseCase(entryRepo, nil, nil, nil, zerolog.Nop())
	uc := usecase.NewExportUseCase(ledger, encoder, nil)

	var buf bytes.Buffer
	if err := uc.Export(context.Background(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if buf.String() != "ok" {
		t.Fatalf("expected encoder output to reach the writer, got %q", buf.String())
	}
}

func TestExportUseCase_EmptyLedgerStillEncodes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	entryRepo := mocks.NewMockEntryRepository(ctrl)
	entryRepo.EXPECT().List(gomock.Any()).Return(nil, nil)

	encoder := mocks.NewMockEntryEncoder(ctrl)
	encoder.EXPECT().Encode(gomock.Any(), gomock.Len(0)).Return(nil)

	ledger := usecase.NewLedgerUseCase(entryRepo, nil, nil, nil, zerolog.Nop())
	uc := usecase.NewExportUseCase(ledger, encoder, nil)

	if err := uc.Export(context.Background(), io.Discard); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExportUseCase_Errors(t *testing.T) {
	t.Run("list error skips encoding", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		listErr := errors.New("db down")
		entryRepo := mocks.NewMockEntryRepository(ctrl)
		entryRepo.EXPECT().List(gomock.Any()).Return(nil, listErr)
		encoder := mocks.NewMockEntryEncoder(ctrl)

		ledger := usecase.NewLedgerUseCase(entryRepo, nil, nil, nil, zerolog.Nop())
		uc := usecase.NewExportUseCase(ledger, encoder, nil)

		if err := uc.Export(context.Background(), io.Discard); !errors.Is(err, listErr) {
			t.Fatalf("expected list error, got %v", err)
		}
	})

	t.Run("encoder error is wrapped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		encErr := errors.New("short write")
		entryRepo := mocks.NewMockEntryRepository(ctrl)
		entryRepo.EXPECT().List(gomock.Any()).Return(nil, nil)
		encoder := mocks.NewMockEntryEncoder(ctrl)
		encoder.EXPECT().Encode(gomock.Any(), gomock.Any()).Return(encErr)

		ledger := usecase.NewLedgerUseCase(entryRepo, nil, nil, nil, zerolog.Nop())
		uc := usecase.NewExportUseCase(ledger, encoder, nil)

		if err := uc.Export(context.Background(), io.Discard); !errors.Is(err, encErr) {
			t.Fatalf("expected encoder error, got %v", err)
		}
	})
}

func TestLedgerUseCase_PublishesWithMockPublisher(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	entryRepo := mocks.NewMockEntryRepository(ctrl)
	entryRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *domain.Entry) error {
		e.Seq = 7
		return nil
	})

	publisher := mocks.NewMockChangePublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev *domain.ChangeEvent) error {
		if ev.Type != domain.EventTypeEntryAdded || ev.Seq != 7 || ev.Payload == nil || ev.Payload.Amount != "3" {
			t.Fatalf("unexpected event: %+v", ev)
		}
		return nil
	})

	uc := usecase.NewLedgerUseCase(entryRepo, publisher, nil, nil, zerolog.Nop())

	entry, err := uc.AddEntry(context.Background(), usecase.AddEntryInput{Name: "Choi", Amount: "3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Seq != 7 {
		t.Fatalf("expected seq assigned by the store, got %d", entry.Seq)
	}
}
