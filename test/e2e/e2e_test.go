// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erate-tracker/internal/api"
	"erate-tracker/internal/apiclient"
	"erate-tracker/internal/common/config"
	"erate-tracker/internal/common/database"
	apphttp "erate-tracker/internal/common/http"
	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/models"
	"erate-tracker/internal/onboarding"

	completeonboarding "erate-tracker/internal/workers/onboarding/complete-onboarding"
	discoverrecords "erate-tracker/internal/workers/onboarding/discover-records"
	notificationpreferences "erate-tracker/internal/workers/onboarding/notification-preferences"
	phoneverification "erate-tracker/internal/workers/onboarding/phone-verification"
	saveselection "erate-tracker/internal/workers/onboarding/save-selection"
)

// The suite needs Postgres, Redis and Elasticsearch on localhost. It runs
// only with E2E=1.
func TestMain(m *testing.M) {
	if os.Getenv("E2E") != "1" {
		fmt.Println("E2E not set, skipping end-to-end suite")
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// ==========================
// Stubs for the edges
// ==========================

type staticAuth struct {
	principal *models.Principal
}

func (a staticAuth) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	return a.principal, nil
}

// capturedSMS keeps the last message instead of texting a real phone.
type capturedSMS struct {
	mu   sync.Mutex
	last string
}

func (c *capturedSMS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = aws.ToString(params.Message)
	return &sns.PublishOutput{MessageId: aws.String(uuid.NewString())}, nil
}

var codePattern = regexp.MustCompile(`code is (\d+)`)

func (c *capturedSMS) code(t *testing.T) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := codePattern.FindStringSubmatch(c.last)
	require.Len(t, m, 2, "no code in %q", c.last)
	return m[1]
}

// ==========================
// Full wizard run
// ==========================

func TestFullE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)

	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	cfg.Onboarding.DiscoveryIndex = "frn_status_e2e"

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	defer pg.Close()
	require.NoError(t, pg.Ping(ctx))

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "Redis connection failed")
	defer rdb.Close()
	require.NoError(t, rdb.Ping(ctx))

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err, "Elasticsearch client creation failed")
	require.NoError(t, es.Ping(ctx))

	accountID := uuid.NewString()
	spin := fmt.Sprintf("143%06d", time.Now().UnixNano()%1000000)
	createDatabaseTables(t, ctx, pg.GetDB(), accountID, spin)
	seedFundingIndex(t, ctx, es, cfg.Onboarding.DiscoveryIndex, spin)

	log := logger.NewTestLogger(t)
	sms := &capturedSMS{}
	principal := &models.Principal{AccountID: accountID, Email: "sales@netvendor.example", Role: models.RoleVendor}
	srv := httptest.NewServer(buildServer(cfg, log, pg, rdb, es, sms, principal).Handler())
	defer srv.Close()

	client := apiclient.New(srv.URL, apphttp.StaticToken("e2e-token"), 10*time.Second)
	w, err := onboarding.New(client, models.RoleVendor, onboarding.WithLogger(log))
	require.NoError(t, err)

	// Discovery
	w.Start(ctx)
	require.Empty(t, w.Discovery.Advisory())
	records := w.Discovery.Records()
	require.Len(t, records, 2)
	assert.Equal(t, 2025, records[0].FundingYear)
	w.Discovery.Toggle(records[1].FRN)
	require.NoError(t, w.Next(ctx))

	var tracked []string
	rows, err := pg.GetDB().QueryContext(ctx, `SELECT frn FROM tracked_frns WHERE account_id = $1`, accountID)
	require.NoError(t, err)
	for rows.Next() {
		var frn string
		require.NoError(t, rows.Scan(&frn))
		tracked = append(tracked, frn)
	}
	require.NoError(t, rows.Close())
	assert.Equal(t, []string{records[0].FRN}, tracked)

	// Preferences
	require.NoError(t, w.Preferences.ToggleChannel(models.ChannelSMS))
	require.NoError(t, w.Preferences.SetFrequency(models.FrequencyWeekly))
	require.NoError(t, w.Next(ctx))
	require.True(t, w.Preferences.LastWrite().OK(), "preferences write: %v", w.Preferences.LastWrite().Err)

	stored, err := client.GetPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.FrequencyWeekly, stored.Frequency)
	assert.True(t, stored.Channels[models.ChannelSMS])

	// Verification
	require.NoError(t, w.Verification.Send(ctx, "(217) 555-0100"))
	require.ErrorIs(t, w.Verification.Verify(ctx, "0000"), onboarding.ErrCodeRejected)
	require.NoError(t, w.Verification.Verify(ctx, sms.code(t)))

	var phone string
	require.NoError(t, pg.GetDB().QueryRowContext(ctx,
		`SELECT phone FROM accounts WHERE id = $1 AND phone_verified_at IS NOT NULL`, accountID).Scan(&phone))
	assert.Equal(t, "+12175550100", phone)

	// Completion
	c, err := w.Complete(ctx)
	require.NoError(t, err)
	assert.True(t, c.Acknowledged)
	assert.Equal(t, "/vendor", c.Destination)

	var completed bool
	require.NoError(t, pg.GetDB().QueryRowContext(ctx,
		`SELECT onboarding_completed_at IS NOT NULL FROM accounts WHERE id = $1`, accountID).Scan(&completed))
	assert.True(t, completed)
}

func buildServer(
	cfg *config.Config,
	log logger.Logger,
	pg *database.PostgresClient,
	rdb *database.RedisClient,
	es *database.ElasticsearchClient,
	sms phoneverification.SNSService,
	principal *models.Principal,
) *api.Server {
	db := pg.GetDB()

	drCfg := discoverrecords.FromAppConfig(cfg)
	ssCfg := saveselection.DefaultConfig()
	npCfg := notificationpreferences.DefaultConfig()
	pvCfg := phoneverification.FromAppConfig(cfg)
	pvCfg.KeyPrefix = "e2e:phone"
	coCfg := completeonboarding.FromAppConfig(cfg)

	phone := phoneverification.NewHandler(pvCfg,
		phoneverification.NewService(phoneverification.ServiceDependencies{Logger: log, SNS: sms}, pvCfg, db, rdb.GetClient()), log)

	return api.NewServer(cfg.Server, api.Dependencies{
		Auth:   staticAuth{principal: principal},
		Logger: log,
	}, api.Routes{
		Records: discoverrecords.NewHandler(drCfg,
			discoverrecords.NewService(discoverrecords.ServiceDependencies{Logger: log}, drCfg, db, es.Client), log),
		Selection: saveselection.NewHandler(ssCfg,
			saveselection.NewService(saveselection.ServiceDependencies{Logger: log}, ssCfg, db), log),
		Preferences: notificationpreferences.NewHandler(npCfg,
			notificationpreferences.NewService(notificationpreferences.ServiceDependencies{Logger: log}, npCfg, db), log),
		SendCode:   http.HandlerFunc(phone.Send),
		VerifyCode: http.HandlerFunc(phone.Verify),
		Complete: completeonboarding.NewHandler(coCfg,
			completeonboarding.NewService(completeonboarding.ServiceDependencies{Logger: log}, coCfg, db), log),
	})
}

// ==========================
// Database tables + test data
// ==========================

func createDatabaseTables(t *testing.T, ctx context.Context, db *sql.DB, accountID, spin string) {
	t.Log("Creating database tables and inserting test data...")

	queries := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id VARCHAR(64) PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL,
			organization_name VARCHAR(255),
			ben VARCHAR(32),
			cnslt_registration_number VARCHAR(32),
			spin VARCHAR(32),
			phone VARCHAR(32),
			phone_verified_at TIMESTAMP,
			onboarding_completed_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS tracked_frns (
			account_id VARCHAR(64) NOT NULL REFERENCES accounts(id),
			frn VARCHAR(16) NOT NULL,
			source VARCHAR(32) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (account_id, frn)
		)`,
		`CREATE TABLE IF NOT EXISTS notification_preferences (
			account_id VARCHAR(64) PRIMARY KEY REFERENCES accounts(id),
			categories JSONB NOT NULL DEFAULT '{}',
			channels JSONB NOT NULL DEFAULT '{}',
			frequency VARCHAR(16),
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, q := range queries {
		_, err := db.ExecContext(ctx, q)
		require.NoError(t, err)
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, role, organization_name, spin) VALUES ($1, $2, 'vendor', 'NetVendor LLC', $3)`,
		accountID, "sales@netvendor.example", spin)
	require.NoError(t, err)
}

func seedFundingIndex(t *testing.T, ctx context.Context, es *database.ElasticsearchClient, index, spin string) {
	t.Logf("Seeding %s...", index)

	mapping := `{"mappings":{"properties":{
		"funding_request_number":{"type":"keyword"},
		"funding_year":{"type":"integer"},
		"spin":{"type":"keyword"},
		"ben":{"type":"keyword"},
		"cnslt_registration_number":{"type":"keyword"}
	}}}`
	res, err := esapi.IndicesCreateRequest{Index: index, Body: strings.NewReader(mapping)}.Do(ctx, es.Client)
	require.NoError(t, err)
	res.Body.Close()

	docs := []string{
		fmt.Sprintf(`{"funding_request_number":"2499%06d","funding_year":2024,"organization_name":"Springfield SD","form_471_category":"Category 1","form_471_frn_status_name":"Funded","funding_commitment_request":18000,"application_number":"241000001","spin":"%s"}`, time.Now().UnixNano()%1000000, spin),
		fmt.Sprintf(`{"funding_request_number":"2599%06d","funding_year":2025,"organization_name":"Springfield SD","form_471_category":"Category 2","form_471_frn_status_name":"Pending","funding_commitment_request":4200.5,"application_number":"251000002","spin":"%s"}`, time.Now().UnixNano()%1000000, spin),
	}
	for _, doc := range docs {
		res, err := esapi.IndexRequest{Index: index, Body: strings.NewReader(doc), Refresh: "true"}.Do(ctx, es.Client)
		require.NoError(t, err)
		require.False(t, res.IsError(), res.String())
		res.Body.Close()
	}
}
