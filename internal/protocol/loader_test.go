package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lightpath-health/careassist/internal/pinecone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const protocolsJSONL = `{"chunk_id":"chunk-1","task_code":"BGM-104","task_name":"Hyperglycemia > 400, daily","priority":"P0","program":"lightpath","trigger":"BG reading above 400","steps":{"clinic":"Escalate to clinic RN.","non_clinic":"Message member within 2 hours.","general":"Review readings."},"roles":["HC","RN"],"links":["https://care.example.com/protocols/bgm-104"],"full_text":"| BGM-104 | ... |"}
{"chunk_id":"chunk-2","task_code":"ENG-100","task_name":"Greet new member","priority":"P2","program":"lightpath","steps":{"general":"Send welcome message."},"roles":["HC"],"full_text":""}`

func TestLoaderUploadsRecords(t *testing.T) {
	var uploaded []map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/records/namespaces/protocols/upsert", r.URL.Path)
		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var rec map[string]any
			require.NoError(t, json.Unmarshal([]byte(line), &rec))
			uploaded = append(uploaded, rec)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	loader := NewLoader(pinecone.New(srv.URL, "k"), "protocols")

	n, err := loader.Load(context.Background(), strings.NewReader(protocolsJSONL))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, uploaded, 2)

	first := uploaded[0]
	assert.Equal(t, "chunk-1", first["_id"])
	assert.Equal(t, "BGM-104", first["task_code"])
	assert.Equal(t, "P0", first["priority"])
	assert.Equal(t, "HC,RN", first["roles"])
	assert.Equal(t, "BG reading above 400", first["trigger"])
	assert.Equal(t, "Escalate to clinic RN.", first["steps_clinic"])
	assert.Equal(t, "Message member within 2 hours.", first["steps_non_clinic"])
	assert.Equal(t, "Review readings.", first["steps_general"])
	assert.Equal(t, "https://care.example.com/protocols/bgm-104", first["links"])

	second := uploaded[1]
	_, hasLinks := second["links"]
	assert.False(t, hasLinks, "records without links carry no links field")

	content := first["content"].(string)
	assert.Contains(t, content, "Task: Hyperglycemia > 400, daily")
	assert.Contains(t, content, "Code: BGM-104")
	assert.Contains(t, content, "Trigger: BG reading above 400")
	assert.Contains(t, content, "Steps (clinic): Escalate to clinic RN.")
	assert.Contains(t, content, "Steps (non_clinic): Message member within 2 hours.")
	assert.Contains(t, content, "Roles: HC, RN")

	// Known variants keep a stable order: general before clinic before non_clinic
	general := strings.Index(content, "Steps (general)")
	clinic := strings.Index(content, "Steps (clinic)")
	nonClinic := strings.Index(content, "Steps (non_clinic)")
	assert.True(t, general < clinic && clinic < nonClinic)
}

func TestLoaderRejectsMalformedLine(t *testing.T) {
	loader := NewLoader(pinecone.New("http://127.0.0.1:0", "k"), "protocols")

	_, err := loader.Load(context.Background(), strings.NewReader("{not json}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestLoaderSkipsBlankLines(t *testing.T) {
	var count int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			if strings.TrimSpace(scanner.Text()) != "" {
				count++
			}
		}
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	loader := NewLoader(pinecone.New(srv.URL, "k"), "protocols")
	n, err := loader.Load(context.Background(), strings.NewReader("\n"+protocolsJSONL+"\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, count)
}
