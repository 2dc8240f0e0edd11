package server

import (
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDTOSchemasReflect guards against silent drift between the wire
// DTOs and their JSON shape: each request/response type listed below
// must reflect into a valid schema with the fields this spec names. Grounded on the
// teacher's `dittofs config schema` command, which reflects its own
// config struct the same way.
func TestDTOSchemasReflect(t *testing.T) {
	reflector := jsonschema.Reflector{DoNotReference: true}

	cases := []struct {
		name        string
		v           any
		mustContain []string
	}{
		{"loginRequest", loginRequest{}, []string{"username", "password"}},
		{"loginResponse", loginResponse{}, []string{"status", "user_id", "is_admin"}},
		{"listDirResponse", listDirResponse{}, []string{"status", "files"}},
		{"mkdirResponse", mkdirResponse{}, []string{"status", "directory_id", "name"}},
		{"uploadRequestPayload", uploadRequestPayload{}, []string{"name", "size"}},
		{"uploadReadyResponse", uploadReadyResponse{}, []string{"status", "file_id", "uuid"}},
		{"chmodResponse", chmodResponse{}, []string{"status", "permissions", "permissions_str"}},
		{"searchRequestPayload", searchRequestPayload{}, []string{"pattern", "directory_id"}},
		{"searchResponse", searchResponse{}, []string{"status", "count", "results"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			schema := reflector.Reflect(tc.v)
			require.NotNil(t, schema.Properties)
			for _, field := range tc.mustContain {
				_, ok := schema.Properties.Get(field)
				assert.True(t, ok, "schema for %s missing field %q", tc.name, field)
			}
		})
	}
}
