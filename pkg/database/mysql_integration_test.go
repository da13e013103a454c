package database_test

import (
	"context"
	"os"
	"testing"
	"time"

	"acquittals/pkg/config"
	"acquittals/pkg/database"
	"acquittals/pkg/ingest"
	"acquittals/process/report"

	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestMySQLRoundTrip runs migration, ingestion and the dialect specific
// aggregation SQL against a real MySQL server. Opt-in with INTEGRATION=1.
func TestMySQLRoundTrip(t *testing.T) {
	if os.Getenv("INTEGRATION") != "1" {
		t.Skip("integration tests are disabled; set INTEGRATION=1 to enable")
	}
	ctx := context.Background()
	mysql, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mysql:8.0",
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "test",
				"MYSQL_DATABASE":      "chs_acquittals",
			},
			WaitingFor: wait.ForLog("ready for connections").WithOccurrence(2).WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start mysql: %v", err)
	}
	t.Cleanup(func() {
		if err := mysql.Terminate(context.Background()); err != nil {
			t.Logf("terminate mysql: %v", err)
		}
	})
	host, _ := mysql.Host(ctx)
	port, err := mysql.MappedPort(ctx, "3306/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}

	db, err := database.Open(config.Database{
		Type:            "mysql",
		Host:            host,
		Port:            port.Port(),
		Name:            "chs_acquittals",
		User:            "root",
		Password:        "test",
		ConnectionLimit: 4,
		LogLevel:        "warn",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.SeedRoles(db); err != nil {
		t.Fatalf("seed roles: %v", err)
	}

	rows := []ingest.Row{
		{"facility_name": "Clinic A", "item_description": "Gloves", "quantity": "2", "total_cost": "10.50"},
		{"facility_name": "Clinic B", "item_description": "Desk", "quantity": "1", "total_cost": "300"},
	}
	res, err := ingest.Store(ctx, db, ingest.Batch{Form: ingest.GoodsServices, FileName: "goods.xlsx"}, rows)
	if err != nil || res.Records != 2 {
		t.Fatalf("store: %+v %v", res, err)
	}

	s, err := report.GetSummary(ctx, db)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !s.Summary.GoodsServicesTotal.Equal(decimal.RequireFromString("310.5")) {
		t.Fatalf("unexpected goods total %s", s.Summary.GoodsServicesTotal)
	}
	a, err := report.GetAnalytics(ctx, db)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if len(a.MonthlyTrends) != 1 || a.MonthlyTrends[0].Month != time.Now().UTC().Format("2006-01") {
		t.Fatalf("unexpected monthly trends %+v", a.MonthlyTrends)
	}
	fs, err := report.GetFacilitySummaries(ctx, db)
	if err != nil || len(fs) != 2 || fs[0].LastUpdated.IsZero() {
		t.Fatalf("unexpected facility summaries %+v err=%v", fs, err)
	}
}
