package reminder

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eupsico/intranet-1-sub000/internal/crypto"
	"github.com/eupsico/intranet-1-sub000/internal/repo"
)

var testKeys = map[string][]byte{"v1": bytes.Repeat([]byte{0x42}, 32)}

func encRow(t *testing.T, name, phone, hour string) repo.SessionReminderRow {
	t.Helper()
	enc, nonce, err := crypto.Encrypt([]byte(phone), "v1", testKeys)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	ver := "v1"
	return repo.SessionReminderRow{
		CaseID:        uuid.New(),
		PatientName:   name,
		ConfirmedTime: hour,
		ContactEnc:    enc,
		ContactNonce:  nonce,
		ContactKeyVer: &ver,
	}
}

func TestSendSessionReminders_DBNil(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 2, 12, 0, 0, 0, 0, time.UTC)
	sent, skipped := SendSessionReminders(ctx, nil, date, nil, testKeys)
	if sent != 0 || skipped != 0 {
		t.Errorf("db nil: got sent=%d skipped=%d, want 0,0", sent, skipped)
	}
}

func TestSendSessionRemindersWithLister_ListerReturnsError(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 2, 12, 0, 0, 0, 0, time.UTC)
	lister := &mockLister{err: errors.New("db error")}
	sender := &mockSender{failIndex: -1}
	sent, skipped := SendSessionRemindersWithLister(ctx, nil, date, sender, testKeys, lister)
	if sent != 0 || skipped != 0 {
		t.Errorf("lister error: got sent=%d skipped=%d, want 0,0", sent, skipped)
	}
}

func TestSendSessionRemindersWithLister_SenderNil_CountsSkipped(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 2, 12, 0, 0, 0, 0, time.UTC)
	rows := []repo.SessionReminderRow{
		encRow(t, "Maria", "+5511999990000", "10:00"),
		encRow(t, "João", "+5511888880000", "11:00"),
	}
	lister := &mockLister{rows: rows}
	sent, skipped := SendSessionRemindersWithLister(ctx, nil, date, nil, testKeys, lister)
	if sent != 0 || skipped != 2 {
		t.Errorf("sender nil: got sent=%d skipped=%d, want 0,2", sent, skipped)
	}
}

func TestSendSessionRemindersWithLister_AllSent(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 2, 12, 0, 0, 0, 0, time.UTC)
	rows := []repo.SessionReminderRow{
		encRow(t, "Maria", "+5511999990000", "14:30"),
		encRow(t, "João", "+5511888880000", "09:00"),
	}
	lister := &mockLister{rows: rows}
	sender := &mockSender{failIndex: -1}
	sent, skipped := SendSessionRemindersWithLister(ctx, nil, date, sender, testKeys, lister)
	if sent != 2 || skipped != 0 {
		t.Errorf("all sent: got sent=%d skipped=%d, want 2,0", sent, skipped)
	}
	if len(sender.calls) != 2 {
		t.Fatalf("sender calls: got %d, want 2", len(sender.calls))
	}
	// Formato da data no reminder: 02/01/2006
	wantDateStr := "12/02/2025"
	wantPhones := []string{"+5511999990000", "+5511888880000"}
	for i, c := range sender.calls {
		if c.dateStr != wantDateStr {
			t.Errorf("call %d dateStr: got %q, want %q", i, c.dateStr, wantDateStr)
		}
		if c.patientName != rows[i].PatientName || c.phone != wantPhones[i] {
			t.Errorf("call %d: phone=%q patient=%q", i, c.phone, c.patientName)
		}
		if c.timeStr != rows[i].ConfirmedTime {
			t.Errorf("call %d timeStr: got %q, want %q", i, c.timeStr, rows[i].ConfirmedTime)
		}
	}
}

func TestSendSessionRemindersWithLister_UndecryptableContact_Skipped(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 2, 12, 0, 0, 0, 0, time.UTC)
	bad := encRow(t, "Pedro", "+5511777770000", "12:00")
	bad.ContactKeyVer = nil
	rows := []repo.SessionReminderRow{
		encRow(t, "Maria", "+5511999990000", "10:00"),
		bad,
	}
	lister := &mockLister{rows: rows}
	sender := &mockSender{failIndex: -1}
	sent, skipped := SendSessionRemindersWithLister(ctx, nil, date, sender, testKeys, lister)
	if sent != 1 || skipped != 1 {
		t.Errorf("undecryptable: got sent=%d skipped=%d, want 1,1", sent, skipped)
	}
}

func TestSendSessionRemindersWithLister_PartialFail(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 2, 12, 0, 0, 0, 0, time.UTC)
	rows := []repo.SessionReminderRow{
		encRow(t, "Maria", "+5511999990000", "10:00"),
		encRow(t, "João", "+5511888880000", "11:00"),
		encRow(t, "Pedro", "+5511777770000", "12:00"),
	}
	lister := &mockLister{rows: rows}
	// Falha na segunda chamada (índice 1)
	sender := &mockSender{failIndex: 1}
	sent, skipped := SendSessionRemindersWithLister(ctx, nil, date, sender, testKeys, lister)
	if sent != 2 || skipped != 1 {
		t.Errorf("partial fail: got sent=%d skipped=%d, want 2,1", sent, skipped)
	}
}

func TestDefaultWhatsAppSender_NilWhenEmpty(t *testing.T) {
	if DefaultWhatsAppSender("", "token", "from") != nil {
		t.Error("expected nil when accountSid empty")
	}
	if DefaultWhatsAppSender("sid", "", "from") != nil {
		t.Error("expected nil when authToken empty")
	}
	if DefaultWhatsAppSender("sid", "token", "") != nil {
		t.Error("expected nil when from empty")
	}
}

func TestDefaultWhatsAppSender_NonNilWhenConfigured(t *testing.T) {
	c := DefaultWhatsAppSender("sid", "token", "whatsapp:+15551234567")
	if c == nil {
		t.Error("expected non-nil client when all params set")
	}
}

// mockLister implementa SessionLister para testes.
type mockLister struct {
	rows []repo.SessionReminderRow
	err  error
}

func (m *mockLister) ListSessionsForReminder(_ context.Context, _ *gorm.DB, _ string, _ time.Time) ([]repo.SessionReminderRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

// mockSender implementa WhatsAppSender e grava as chamadas.
type mockSender struct {
	calls     []sendCall
	failIndex int // índice da chamada que deve falhar (-1 = nenhuma)
}

type sendCall struct {
	phone, patientName, dateStr, timeStr string
}

func (m *mockSender) SendReminder(phone, patientName, dateStr, timeStr string) error {
	m.calls = append(m.calls, sendCall{phone, patientName, dateStr, timeStr})
	if m.failIndex >= 0 && len(m.calls)-1 == m.failIndex {
		return errors.New("mock send error")
	}
	return nil
}
