package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumebuilder/internal/config"
	"resumebuilder/internal/resume"
)

type fakeCompleter struct {
	reply    string
	err      error
	messages []Message
	jsonMode bool
}

func (f *fakeCompleter) Complete(_ context.Context, messages []Message, jsonMode bool) (string, error) {
	f.messages = messages
	f.jsonMode = jsonMode
	return f.reply, f.err
}

type fakeCreator struct {
	ownerID string
	title   string
	content resume.Content
	calls   int
}

func (f *fakeCreator) CreateFromExtraction(_ context.Context, ownerID, title string, content resume.Content) (resume.Resume, error) {
	f.calls++
	f.ownerID, f.title, f.content = ownerID, title, content
	return resume.Resume{ID: "new-id"}, nil
}

func TestEnhanceSummaryReturnsModelTextVerbatim(t *testing.T) {
	llm := &fakeCompleter{reply: "  Seasoned engineer.\n"}
	relay := NewRelay(llm, nil, nil)

	out, err := relay.EnhanceSummary(context.Background(), "i write code")
	require.NoError(t, err)
	assert.Equal(t, "  Seasoned engineer.\n", out)
	require.Len(t, llm.messages, 2)
	assert.Equal(t, "system", llm.messages[0].Role)
	assert.Equal(t, summaryPrompt, llm.messages[0].Content)
	assert.Equal(t, "i write code", llm.messages[1].Content)
	assert.False(t, llm.jsonMode)
}

func TestEnhanceRejectsEmptyInput(t *testing.T) {
	llm := &fakeCompleter{}
	relay := NewRelay(llm, nil, nil)

	_, err := relay.EnhanceJobDescription(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Nil(t, llm.messages, "no upstream call for empty input")
}

func TestEnhancePropagatesUpstreamError(t *testing.T) {
	relay := NewRelay(&fakeCompleter{err: errors.New("boom")}, nil, nil)
	_, err := relay.EnhanceJobDescription(context.Background(), "did things")
	assert.Error(t, err)
}

func TestExtractResumePersistsModelOutput(t *testing.T) {
	reply := `{"professional_summary":"","skills":"Go, SQL","personal_info":{"full_name":"Ada"},"experience":[{"company":"Acme","end_date":null,"is_current":true}],"projects":[],"education":[]}`
	llm := &fakeCompleter{reply: reply}
	creator := &fakeCreator{}
	relay := NewRelay(llm, creator, nil)

	id, err := relay.ExtractResume(context.Background(), "owner", "Imported", "Ada Lovelace ...")
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
	assert.True(t, llm.jsonMode)
	assert.Equal(t, extractionSystemPrompt, llm.messages[0].Content)
	assert.Contains(t, llm.messages[1].Content, "Ada Lovelace ...")

	assert.Equal(t, "owner", creator.ownerID)
	assert.Equal(t, "Imported", creator.title)
	assert.Equal(t, resume.Skills{"Go", "SQL"}, creator.content.Skills)
	assert.Equal(t, "Ada", creator.content.PersonalInfo.FullName)
	require.Len(t, creator.content.Experience, 1)
	assert.True(t, creator.content.Experience[0].IsCurrent)
}

func TestExtractResumeCoercesScalarFieldTypes(t *testing.T) {
	reply := `{"professional_summary":null,"skills":["Go",5],` +
		`"experience":[{"company":"Acme","start_date":2019,"is_current":"true"}],` +
		`"education":[{"institution":"MIT","degree":"BS","gpa":3.8,"graduation_date":2020}]}`
	creator := &fakeCreator{}
	relay := NewRelay(&fakeCompleter{reply: reply}, creator, nil)

	_, err := relay.ExtractResume(context.Background(), "owner", "t", "text")
	require.NoError(t, err)
	require.Equal(t, 1, creator.calls)

	require.Len(t, creator.content.Education, 1)
	assert.Equal(t, "3.8", creator.content.Education[0].GPA)
	assert.Equal(t, "2020", creator.content.Education[0].GraduationDate)
	require.Len(t, creator.content.Experience, 1)
	assert.Equal(t, "2019", creator.content.Experience[0].StartDate)
	assert.True(t, creator.content.Experience[0].IsCurrent)
	assert.Equal(t, resume.Skills{"Go", "5"}, creator.content.Skills)
	assert.Empty(t, creator.content.ProfessionalSummary)
}

func TestExtractResumeRejectsUnparseableOutput(t *testing.T) {
	creator := &fakeCreator{}
	relay := NewRelay(&fakeCompleter{reply: "Sure! Here is your resume"}, creator, nil)

	_, err := relay.ExtractResume(context.Background(), "owner", "t", "text")
	assert.ErrorIs(t, err, ErrMalformedOutput)
	assert.Zero(t, creator.calls)
}

func TestClientComplete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(config.LLMConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", Model: "gpt-test"})
	require.NoError(t, err)

	out, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, true)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, "gpt-test", got.Model)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestClientCompleteSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client, err := NewClient(config.LLMConfig{APIKey: "sk", BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestNewClientRequiresKeyAndModel(t *testing.T) {
	_, err := NewClient(config.LLMConfig{Model: "m"})
	assert.Error(t, err)
	_, err = NewClient(config.LLMConfig{APIKey: "k"})
	assert.Error(t, err)
}
