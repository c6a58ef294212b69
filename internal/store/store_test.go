package store

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	require.Error(t, err)
	assert.True(t, sim.IsKind(err, sim.KindStore))
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close())
}

func TestMigrate_Idempotent(t *testing.T) {
	s := openTestStore(t)

	versionAfterFirst, err := s.SchemaVersion()
	require.NoError(t, err)

	// Applying again must be a no-op.
	require.NoError(t, s.Migrate())
	versionAfterSecond, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, versionAfterFirst, versionAfterSecond)

	// All kernel tables exist.
	for _, table := range []string{"run", "event_log", "snapshot", "player_command", "customer", "complaint", "pnl_snapshot"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %q missing", table)
	}
}

func TestMigrate_RecordsScriptsInOrder(t *testing.T) {
	s := openTestStore(t)

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, "0018_reputation.sql", version)
}

func TestReopen_SeesSameData(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.InsertRun("run-1", 42, "test"))

	other, err := s.Reopen()
	require.NoError(t, err)
	defer other.Close()

	seed, err := other.RunSeed("run-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), seed)
}

func TestAppendEvent_InsertionOrderPreserved(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.InsertRun("run-1", 42, "test"))

	payloads := []string{
		`{"type":"tick_started","tick":1}`,
		`{"type":"fee_charged","tick":1,"amount":27.08}`,
		`{"type":"tick_completed","tick":1}`,
	}
	types := []string{"tick_started", "fee_charged", "tick_completed"}
	for i := range payloads {
		require.NoError(t, s.AppendEvent(&EventLogEntry{
			RunID:     "run-1",
			Tick:      1,
			Subsystem: "engine",
			EventType: types[i],
			Payload:   payloads[i],
		}))
	}

	entries, err := s.EventsForTick("run-1", 1)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, entry := range entries {
		assert.Equal(t, types[i], entry.EventType)
		assert.Equal(t, payloads[i], entry.Payload)
		if i > 0 {
			assert.Greater(t, entry.ID, entries[i-1].ID)
		}
	}

	got, err := s.EventPayloads("run-1")
	require.NoError(t, err)
	assert.Equal(t, payloads, got)

	count, err := s.EventCount("run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestEventsForTick_IsolatesRuns(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.InsertRun("run-a", 1, "test"))
	require.NoError(t, s.InsertRun("run-b", 2, "test"))

	require.NoError(t, s.AppendEvent(&EventLogEntry{RunID: "run-a", Tick: 1, Subsystem: "engine", EventType: "tick_started", Payload: "{}"}))
	require.NoError(t, s.AppendEvent(&EventLogEntry{RunID: "run-b", Tick: 1, Subsystem: "engine", EventType: "tick_started", Payload: "{}"}))

	entries, err := s.EventsForTick("run-a", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-a", entries[0].RunID)
}

func TestSnapshot_SaveLoadAndTicks(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.LoadSnapshot("run-1", 10)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SaveSnapshot("run-1", 10, `{"tick":10}`))
	require.NoError(t, s.SaveSnapshot("run-1", 20, `{"tick":20}`))

	image, found, err := s.LoadSnapshot("run-1", 10)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"tick":10}`, image)

	ticks, err := s.SnapshotTicks("run-1")
	require.NoError(t, err)
	assert.Equal(t, []sim.Tick{10, 20}, ticks)
}

func TestPlayerCommand_StoreAndFetch(t *testing.T) {
	s := openTestStore(t)

	id, err := s.StorePlayerCommand("run-1", 5, sim.SetProductFee{
		ProductID: "checking", FeeType: "monthly_fee", NewValue: 12,
	})
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	cmd, err := s.GetPlayerCommand("run-1", strconv.FormatInt(id, 10))
	require.NoError(t, err)
	assert.Equal(t, sim.SetProductFee{ProductID: "checking", FeeType: "monthly_fee", NewValue: 12}, cmd)
}

func TestPlayerCommand_UnknownID(t *testing.T) {
	s := openTestStore(t)

	cmd, err := s.GetPlayerCommand("run-1", "999")
	require.NoError(t, err)
	assert.Nil(t, cmd)
}

func TestCustomerLifecycle(t *testing.T) {
	s := openTestStore(t)

	rec := &CustomerRecord{
		CustomerID:     "cust-1",
		Name:           "Maria Chen",
		Segment:        "mass_market",
		IncomeBand:     "low",
		RiskBand:       "standard",
		OpenTick:       1,
		Status:         "active",
		ChurnRisk:      0.1,
		Satisfaction:   0.7,
		MonthlyTxnMean: 20,
		CashIntensity:  0.35,
		PayrollAmount:  2000,
		HasPayroll:     true,
	}
	require.NoError(t, s.InsertCustomer("run-1", rec))
	require.NoError(t, s.InsertAccount("run-1", "acct-1", "cust-1", "basic_checking", 4000, 1))

	active, err := s.ActiveCustomers("run-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, *rec, active[0])

	accounts, err := s.ActiveAccounts("run-1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "acct-1", accounts[0].AccountID)
	assert.True(t, accounts[0].HasPayroll)

	require.NoError(t, s.UpdateAccountBalance("run-1", "acct-1", -4500))
	balance, err := s.AccountBalance("run-1", "acct-1")
	require.NoError(t, err)
	assert.InDelta(t, -500, balance, 0.001)

	require.NoError(t, s.ChurnCustomer("run-1", "cust-1", 30))
	count, err := s.CustomerCount("run-1", "active")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	churned, err := s.ChurnedCustomerCount("run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), churned)

	openAccounts, err := s.ActiveAccountCount("run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), openAccounts)
}

func TestSatisfactionClamping(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.InsertCustomer("run-1", &CustomerRecord{
		CustomerID: "cust-1", Name: "A B", Segment: "mass_market",
		IncomeBand: "low", RiskBand: "standard", Status: "active",
		ChurnRisk: 0.1, Satisfaction: 0.9,
	}))

	require.NoError(t, s.UpdateCustomerSatisfaction("run-1", "cust-1", 0.5))
	satisfaction, err := s.CustomerSatisfaction("run-1", "cust-1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, satisfaction)

	require.NoError(t, s.UpdateCustomerSatisfaction("run-1", "cust-1", -2.0))
	satisfaction, err = s.CustomerSatisfaction("run-1", "cust-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, satisfaction)
}

func TestComplaintLifecycle(t *testing.T) {
	s := openTestStore(t)

	record := &ComplaintRecord{
		ComplaintID: "cmp-1",
		CustomerID:  "cust-1",
		AccountID:   "acct-1",
		TickOpened:  3,
		Product:     "basic_checking",
		Issue:       "fee_dispute",
		Priority:    "standard",
		Status:      "open",
		SLADueTick:  18,
		UDAAPFlag:   true,
	}
	require.NoError(t, s.InsertComplaint("run-1", record))

	fetched, err := s.GetComplaint("run-1", "cmp-1")
	require.NoError(t, err)
	assert.Equal(t, "open", fetched.Status)
	assert.True(t, fetched.UDAAPFlag)
	assert.Nil(t, fetched.TickClosed)

	open, err := s.OpenComplaints("run-1")
	require.NoError(t, err)
	require.Len(t, open, 1)

	require.NoError(t, s.MarkComplaintSLABreach("run-1", "cmp-1"))
	breaches, err := s.SLABreachCount("run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), breaches)

	require.NoError(t, s.CloseComplaint("run-1", "cmp-1", 20, "monetary_relief", 27.08))
	fetched, err = s.GetComplaint("run-1", "cmp-1")
	require.NoError(t, err)
	assert.Equal(t, "closed", fetched.Status)
	assert.Equal(t, "monetary_relief", fetched.ResolutionCode)
	require.NotNil(t, fetched.TickClosed)
	assert.Equal(t, sim.Tick(20), *fetched.TickClosed)

	backlog, err := s.ComplaintBacklog("run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), backlog)
}
