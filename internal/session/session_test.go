package session

import (
	"errors"
	"testing"

	"github.com/zulandar/trainops/internal/models"
	"github.com/zulandar/trainops/internal/operr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Car{},
		&models.Train{},
		&models.CarOrder{},
		&models.OperatingSession{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func seedCar(t *testing.T, db *gorm.DB, id, location string, sessionsAt int) {
	t.Helper()
	c := models.Car{
		ID:                 id,
		ReportingMarks:     "ATSF",
		Number:             id[len("ATSF-"):],
		CarTypeID:          "XM",
		CurrentIndustryID:  location,
		InService:          true,
		SessionsAtLocation: sessionsAt,
	}
	if err := db.Create(&c).Error; err != nil {
		t.Fatal(err)
	}
}

func seedTrain(t *testing.T, db *gorm.DB, id string, sessionNumber int, status string) {
	t.Helper()
	locos, _ := models.EncodeIDList([]string{"loco-1501"})
	cars, _ := models.EncodeIDList(nil)
	tr := models.Train{
		ID: id, Name: "Turn " + id, RouteID: "milltown-turn",
		SessionNumber: sessionNumber, Status: status, MaxCapacity: 5,
		LocomotiveIDs: locos, AssignedCarIDs: cars,
	}
	if err := db.Create(&tr).Error; err != nil {
		t.Fatal(err)
	}
}

func seedOrder(t *testing.T, db *gorm.DB, id, status string) {
	t.Helper()
	o := models.CarOrder{
		ID: id, IndustryID: "milltown-lumber", CarTypeID: "XM",
		SessionNumber: 1, Status: status,
	}
	if err := db.Create(&o).Error; err != nil {
		t.Fatal(err)
	}
}

func TestInit(t *testing.T) {
	db := openTestDB(t)

	sess, err := Init(db)
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if sess.CurrentSession != 1 {
		t.Errorf("CurrentSession = %d, want 1", sess.CurrentSession)
	}
	if sess.PreviousSnapshot != "" {
		t.Errorf("PreviousSnapshot = %q, want empty", sess.PreviousSnapshot)
	}

	// Repeat is a no-op returning the existing row.
	again, err := Init(db)
	if err != nil {
		t.Fatalf("second Init() error: %v", err)
	}
	if again.ID != sess.ID || again.CurrentSession != 1 {
		t.Errorf("second Init() = %+v", again)
	}

	var count int64
	db.Model(&models.OperatingSession{}).Count(&count)
	if count != 1 {
		t.Errorf("session rows = %d, want 1", count)
	}
}

func TestCurrent_Uninitialized(t *testing.T) {
	db := openTestDB(t)
	_, err := Current(db)
	var nf *operr.NotFound
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want NotFound", err)
	}
}

func TestUpdateDescription(t *testing.T) {
	db := openTestDB(t)
	if _, err := Init(db); err != nil {
		t.Fatal(err)
	}
	if err := UpdateDescription(db, "Friday night ops"); err != nil {
		t.Fatalf("UpdateDescription() error: %v", err)
	}
	sess, err := Current(db)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Description != "Friday night ops" {
		t.Errorf("Description = %q", sess.Description)
	}
}

func TestAdvance(t *testing.T) {
	db := openTestDB(t)
	if _, err := Init(db); err != nil {
		t.Fatal(err)
	}
	seedCar(t, db, "ATSF-11111", "lakeside-yard", 0)
	seedCar(t, db, "ATSF-22222", "milltown-lumber", 3)
	seedTrain(t, db, "trn-aaaaa", 1, "completed")
	seedOrder(t, db, "ord-00001", "delivered")

	result, err := Advance(db, "Session two")
	if err != nil {
		t.Fatalf("Advance() error: %v", err)
	}
	if result.PreviousSession != 1 || result.NewSession != 2 {
		t.Errorf("result = %+v", result)
	}
	if result.CarsAged != 2 || result.TrainsCleared != 1 {
		t.Errorf("CarsAged = %d, TrainsCleared = %d", result.CarsAged, result.TrainsCleared)
	}

	sess, err := Current(db)
	if err != nil {
		t.Fatal(err)
	}
	if sess.CurrentSession != 2 {
		t.Errorf("CurrentSession = %d, want 2", sess.CurrentSession)
	}
	if sess.Description != "Session two" {
		t.Errorf("Description = %q", sess.Description)
	}
	if sess.PreviousSnapshot == "" {
		t.Error("PreviousSnapshot is empty after advance")
	}

	// Every car aged by one.
	var car models.Car
	db.First(&car, "id = ?", "ATSF-22222")
	if car.SessionsAtLocation != 4 {
		t.Errorf("SessionsAtLocation = %d, want 4", car.SessionsAtLocation)
	}

	// The closed session's trains are gone; the order survives.
	var trains, orders int64
	db.Model(&models.Train{}).Count(&trains)
	db.Model(&models.CarOrder{}).Count(&orders)
	if trains != 0 {
		t.Errorf("trains = %d, want 0", trains)
	}
	if orders != 1 {
		t.Errorf("orders = %d, want 1", orders)
	}
}

func TestRollback_RestoresExactState(t *testing.T) {
	db := openTestDB(t)
	if _, err := Init(db); err != nil {
		t.Fatal(err)
	}
	seedCar(t, db, "ATSF-11111", "lakeside-yard", 2)
	seedTrain(t, db, "trn-aaaaa", 1, "completed")
	seedOrder(t, db, "ord-00001", "pending")

	if _, err := Advance(db, "Session two"); err != nil {
		t.Fatal(err)
	}

	// Mutate state in the new session, then roll back.
	if err := db.Model(&models.Car{}).Where("id = ?", "ATSF-11111").Updates(map[string]interface{}{
		"current_industry_id":  "milltown-lumber",
		"sessions_at_location": 0,
	}).Error; err != nil {
		t.Fatal(err)
	}
	seedTrain(t, db, "trn-bbbbb", 2, "planned")
	seedOrder(t, db, "ord-00002", "pending")

	sess, err := Rollback(db)
	if err != nil {
		t.Fatalf("Rollback() error: %v", err)
	}
	if sess.CurrentSession != 1 {
		t.Errorf("CurrentSession = %d, want 1", sess.CurrentSession)
	}
	if sess.PreviousSnapshot != "" {
		t.Error("snapshot not consumed by rollback")
	}

	var car models.Car
	db.First(&car, "id = ?", "ATSF-11111")
	if car.CurrentIndustryID != "lakeside-yard" || car.SessionsAtLocation != 2 {
		t.Errorf("car = %q / %d, want lakeside-yard / 2", car.CurrentIndustryID, car.SessionsAtLocation)
	}

	// Snapshot documents are back; session-2 documents are gone.
	var tr models.Train
	if err := db.First(&tr, "id = ?", "trn-aaaaa").Error; err != nil {
		t.Errorf("snapshot train missing: %v", err)
	}
	if tr.Status != "completed" {
		t.Errorf("restored train status = %q, want completed", tr.Status)
	}
	var count int64
	db.Model(&models.Train{}).Where("id = ?", "trn-bbbbb").Count(&count)
	if count != 0 {
		t.Error("session-2 train survived rollback")
	}
	db.Model(&models.CarOrder{}).Where("id = ?", "ord-00002").Count(&count)
	if count != 0 {
		t.Error("session-2 order survived rollback")
	}
	db.Model(&models.CarOrder{}).Where("id = ?", "ord-00001").Count(&count)
	if count != 1 {
		t.Error("snapshot order missing after rollback")
	}
}

func TestRollback_AtSessionOne(t *testing.T) {
	db := openTestDB(t)
	if _, err := Init(db); err != nil {
		t.Fatal(err)
	}
	_, err := Rollback(db)
	var rna *operr.RollbackNotAllowed
	if !errors.As(err, &rna) {
		t.Fatalf("error = %v, want RollbackNotAllowed", err)
	}
}

func TestRollback_SingleLevel(t *testing.T) {
	db := openTestDB(t)
	if _, err := Init(db); err != nil {
		t.Fatal(err)
	}
	if _, err := Advance(db, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := Advance(db, ""); err != nil {
		t.Fatal(err)
	}

	if _, err := Rollback(db); err != nil {
		t.Fatalf("first Rollback() error: %v", err)
	}
	// The snapshot was consumed; a second rollback has nothing to restore.
	_, err := Rollback(db)
	var rna *operr.RollbackNotAllowed
	if !errors.As(err, &rna) {
		t.Fatalf("second rollback error = %v, want RollbackNotAllowed", err)
	}
}

func TestAdvanceRollbackAdvance(t *testing.T) {
	db := openTestDB(t)
	if _, err := Init(db); err != nil {
		t.Fatal(err)
	}
	seedCar(t, db, "ATSF-11111", "lakeside-yard", 0)

	if _, err := Advance(db, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := Rollback(db); err != nil {
		t.Fatal(err)
	}
	// An intervening advance re-arms rollback.
	result, err := Advance(db, "")
	if err != nil {
		t.Fatalf("re-advance error: %v", err)
	}
	if result.NewSession != 2 {
		t.Errorf("NewSession = %d, want 2", result.NewSession)
	}
	if _, err := Rollback(db); err != nil {
		t.Fatalf("rollback after re-advance: %v", err)
	}
}

func TestLocked(t *testing.T) {
	called := false
	err := Locked(func() error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("Locked() = %v, called = %v", err, called)
	}
}
