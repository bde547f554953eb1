package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/trainops/internal/db"
	"github.com/zulandar/trainops/internal/models"
	"github.com/zulandar/trainops/internal/session"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return gdb
}

// newTestRouter wires the API routes against a seeded in-memory store.
func newTestRouter(t *testing.T, gdb *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	stats := newStatsCache()
	stats.refresh(gdb)
	registerRoutes(router, gdb, stats)
	return router
}

func seedDashboard(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	if _, err := session.Init(gdb); err != nil {
		t.Fatal(err)
	}
	locos, _ := models.EncodeIDList([]string{"loco-1501"})
	cars, _ := models.EncodeIDList(nil)
	fixtures := []interface{}{
		&models.Station{ID: "milltown", Name: "Milltown"},
		&models.Industry{ID: "milltown-lumber", Name: "Milltown Lumber Co.", StationID: "milltown", OnLayout: true},
		&models.Car{ID: "ATSF-11111", ReportingMarks: "ATSF", Number: "11111", CarTypeID: "XM", CurrentIndustryID: "milltown-lumber", InService: true},
		&models.Train{ID: "trn-aaaaa", Name: "Milltown Turn", RouteID: "milltown-turn", SessionNumber: 1, Status: "planned", MaxCapacity: 5, LocomotiveIDs: locos, AssignedCarIDs: cars},
		&models.CarOrder{ID: "ord-00001", IndustryID: "milltown-lumber", CarTypeID: "XM", SessionNumber: 1, Status: "pending"},
	}
	for _, f := range fixtures {
		if err := gdb.Create(f).Error; err != nil {
			t.Fatalf("seed %T: %v", f, err)
		}
	}
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHandleSession(t *testing.T) {
	gdb := openTestDB(t)
	seedDashboard(t, gdb)
	router := newTestRouter(t, gdb)

	w := get(t, router, "/api/session")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var view SessionView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.SessionNumber != 1 {
		t.Errorf("SessionNumber = %d, want 1", view.SessionNumber)
	}
	if view.CanRollback {
		t.Error("CanRollback = true at session 1")
	}
}

func TestHandleSession_Uninitialized(t *testing.T) {
	gdb := openTestDB(t)
	router := newTestRouter(t, gdb)

	w := get(t, router, "/api/session")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleTrains(t *testing.T) {
	gdb := openTestDB(t)
	seedDashboard(t, gdb)
	router := newTestRouter(t, gdb)

	w := get(t, router, "/api/trains")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var views []TrainView
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 || views[0].ID != "trn-aaaaa" {
		t.Errorf("views = %+v", views)
	}
	if views[0].HasSwitchList {
		t.Error("HasSwitchList = true for a fresh train")
	}
	if len(views[0].Locomotives) != 1 || views[0].Locomotives[0] != "loco-1501" {
		t.Errorf("Locomotives = %v", views[0].Locomotives)
	}
}

func TestHandleTrains_StatusFilter(t *testing.T) {
	gdb := openTestDB(t)
	seedDashboard(t, gdb)
	router := newTestRouter(t, gdb)

	w := get(t, router, "/api/trains?status=completed")
	var views []TrainView
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 0 {
		t.Errorf("views = %+v, want none", views)
	}
}

func TestHandleTrain_NotFound(t *testing.T) {
	gdb := openTestDB(t)
	seedDashboard(t, gdb)
	router := newTestRouter(t, gdb)

	w := get(t, router, "/api/trains/trn-ghost")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleSwitchList_NoneGenerated(t *testing.T) {
	gdb := openTestDB(t)
	seedDashboard(t, gdb)
	router := newTestRouter(t, gdb)

	w := get(t, router, "/api/trains/trn-aaaaa/switchlist")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "no switch list") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestHandleOrders_Filters(t *testing.T) {
	gdb := openTestDB(t)
	seedDashboard(t, gdb)
	router := newTestRouter(t, gdb)

	w := get(t, router, "/api/orders?status=pending&industry=milltown-lumber")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var views []OrderView
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 || views[0].ID != "ord-00001" {
		t.Errorf("views = %+v", views)
	}

	w = get(t, router, "/api/orders?status=delivered")
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 0 {
		t.Errorf("delivered views = %+v", views)
	}
}

func TestHandleCars(t *testing.T) {
	gdb := openTestDB(t)
	seedDashboard(t, gdb)
	router := newTestRouter(t, gdb)

	w := get(t, router, "/api/cars")
	var views []CarView
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 || views[0].ID != "ATSF-11111" || !views[0].InService {
		t.Errorf("views = %+v", views)
	}
}

func TestHandleIndustries(t *testing.T) {
	gdb := openTestDB(t)
	seedDashboard(t, gdb)
	router := newTestRouter(t, gdb)

	w := get(t, router, "/api/industries")
	var views []IndustryView
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 || views[0].ID != "milltown-lumber" {
		t.Errorf("views = %+v", views)
	}
}

func TestHandleStats(t *testing.T) {
	gdb := openTestDB(t)
	seedDashboard(t, gdb)
	router := newTestRouter(t, gdb)

	w := get(t, router, "/api/stats")
	var stats Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.CarsTotal != 1 || stats.CarsInService != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.CarsByLocation["milltown-lumber"] != 1 {
		t.Errorf("CarsByLocation = %v", stats.CarsByLocation)
	}
	if stats.OrdersByStatus["pending"] != 1 {
		t.Errorf("OrdersByStatus = %v", stats.OrdersByStatus)
	}
	if stats.TrainsByStatus["planned"] != 1 {
		t.Errorf("TrainsByStatus = %v", stats.TrainsByStatus)
	}
}

func TestStatsCache_RefreshKeepsOldOnError(t *testing.T) {
	gdb := openTestDB(t)
	seedDashboard(t, gdb)
	cache := newStatsCache()
	cache.refresh(gdb)
	before := cache.snapshot()

	// Break the schema out from under the cache; refresh must not wipe
	// the last good snapshot.
	if err := gdb.Migrator().DropTable(&models.Car{}); err != nil {
		t.Fatal(err)
	}
	cache.refresh(gdb)
	after := cache.snapshot()
	if after.CarsTotal != before.CarsTotal {
		t.Errorf("CarsTotal = %d, want %d", after.CarsTotal, before.CarsTotal)
	}
}

func TestHandleEvents_Handshake(t *testing.T) {
	gdb := openTestDB(t)
	seedDashboard(t, gdb)
	router := newTestRouter(t, gdb)

	// A cancelled request context closes the stream right after the
	// handshake, before the first poll tick.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	router.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), `{"type":"connected"}`) {
		t.Errorf("body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestWatermarks_DiffSeesOtherProcessChanges(t *testing.T) {
	gdb := openTestDB(t)
	seedDashboard(t, gdb)

	var w watermarks
	w.prime(gdb)
	if evs := w.diff(gdb); len(evs) != 0 {
		t.Fatalf("events before any change = %d, want 0", len(evs))
	}

	// Mutating commands run in their own processes; the store is the
	// only shared channel, so diff must pick up plain row updates.
	time.Sleep(10 * time.Millisecond)
	if err := gdb.Model(&models.Train{}).Where("id = ?", "trn-aaaaa").
		Update("status", "in_progress").Error; err != nil {
		t.Fatal(err)
	}
	if err := gdb.Model(&models.CarOrder{}).Where("id = ?", "ord-00001").
		Update("status", "assigned").Error; err != nil {
		t.Fatal(err)
	}

	var gotTrain, gotOrders bool
	for _, ev := range w.diff(gdb) {
		switch ev.Event {
		case "train":
			te := ev.Data.(trainEvent)
			if te.ID != "trn-aaaaa" || te.Status != "in_progress" {
				t.Errorf("train event = %+v", te)
			}
			gotTrain = true
		case "orders":
			oe := ev.Data.(ordersEvent)
			if oe.Changed != 1 || oe.Pending != 0 {
				t.Errorf("orders event = %+v", oe)
			}
			gotOrders = true
		}
	}
	if !gotTrain {
		t.Error("no train event for a status change")
	}
	if !gotOrders {
		t.Error("no orders event for order churn")
	}

	// Diff advances the watermarks; with nothing new it goes quiet.
	if evs := w.diff(gdb); len(evs) != 0 {
		t.Errorf("repeat diff = %d events, want 0", len(evs))
	}
}

func TestWatermarks_DiffReportsSessionChange(t *testing.T) {
	gdb := openTestDB(t)
	seedDashboard(t, gdb)

	var w watermarks
	w.prime(gdb)

	sess, err := session.Current(gdb)
	if err != nil {
		t.Fatal(err)
	}
	if err := gdb.Model(sess).Update("current_session", sess.CurrentSession+1).Error; err != nil {
		t.Fatal(err)
	}

	var got bool
	for _, ev := range w.diff(gdb) {
		if ev.Event == "session" {
			se := ev.Data.(sessionEvent)
			if se.SessionNumber != sess.CurrentSession+1 {
				t.Errorf("session event = %+v", se)
			}
			got = true
		}
	}
	if !got {
		t.Error("no session event after the session number changed")
	}
}

func TestStart_NilDB(t *testing.T) {
	err := Start(context.Background(), StartOpts{})
	if err == nil {
		t.Fatal("expected error for nil db")
	}
	if !strings.Contains(err.Error(), "db is required") {
		t.Errorf("error = %q", err)
	}
}
