package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/MigRi/internal/database"
	"github.com/koustreak/MigRi/internal/errs"
	"github.com/koustreak/MigRi/internal/schema"
)

// fakeIntrospector serves a fixed database or a fixed error.
type fakeIntrospector struct {
	db  *schema.Database
	err error
}

func (f *fakeIntrospector) Introspect(context.Context) (*schema.Database, error) {
	return f.db, f.err
}

func currentState() *schema.Database {
	db := schema.NewDatabase()
	db.AddTable(&schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: "integer", PrimaryKey: true, AutoIncrement: true},
		},
		PrimaryKey: []string{"id"},
	})
	return db
}

func writeSchemaFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const desiredSchema = `
tables:
  - name: users
    columns:
      - name: id
        type: integer
        primary_key: true
        auto_increment: true
      - name: email
        type: varchar
        not_null: true
`

func newTestServer(t *testing.T, intro *fakeIntrospector, schemaPath string) *Server {
	t.Helper()
	s, err := New("127.0.0.1:0", database.DialectPostgres, intro, schemaPath, nil)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &fakeIntrospector{db: currentState()}, "")

	rec := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "postgresql", body["dialect"])
}

func TestSchemaEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeIntrospector{db: currentState()}, "")

	rec := get(t, s, "/schema")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body schemaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "postgresql", body.Dialect)
	require.Len(t, body.Tables, 1)
	assert.Equal(t, "users", body.Tables[0].Name)
}

func TestSchemaEndpointIntrospectionError(t *testing.T) {
	intro := &fakeIntrospector{err: errs.New(errs.ErrKindConnectionFailed, "db unreachable")}
	s := newTestServer(t, intro, "")

	rec := get(t, s, "/schema")
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "connection_failed", body.Kind)
}

func TestPlanEndpoint(t *testing.T) {
	path := writeSchemaFile(t, desiredSchema)
	s := newTestServer(t, &fakeIntrospector{db: currentState()}, path)

	rec := get(t, s, "/plan")
	require.Equal(t, http.StatusOK, rec.Code)

	var body planResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Changes, 1)
	assert.Equal(t, schema.ChangeAlterTable, body.Changes[0].Type)
	require.Len(t, body.Up, 1)
	assert.Equal(t, `ALTER TABLE "users" ADD COLUMN "email" VARCHAR(255) NOT NULL;`, body.Up[0])
	require.Len(t, body.Down, 1)
	assert.Equal(t, `ALTER TABLE "users" DROP COLUMN "email";`, body.Down[0])
}

func TestPlanEndpointNoChanges(t *testing.T) {
	path := writeSchemaFile(t, `
tables:
  - name: users
    columns:
      - name: id
        type: integer
        primary_key: true
        auto_increment: true
`)
	s := newTestServer(t, &fakeIntrospector{db: currentState()}, path)

	rec := get(t, s, "/plan")
	require.Equal(t, http.StatusOK, rec.Code)

	var body planResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Changes)
	assert.Empty(t, body.Up)
}

func TestPlanEndpointMissingSchemaFile(t *testing.T) {
	s := newTestServer(t, &fakeIntrospector{db: currentState()}, filepath.Join(t.TempDir(), "absent.yaml"))

	rec := get(t, s, "/plan")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
