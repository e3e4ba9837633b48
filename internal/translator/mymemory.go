package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultMyMemoryURL = "https://api.mymemory.translated.net/get"

type MyMemoryService struct {
	email   string
	baseURL string
	client  *http.Client
}

func NewMyMemoryService(email string) *MyMemoryService {
	return &MyMemoryService{
		email:   email,
		baseURL: defaultMyMemoryURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *MyMemoryService) Name() string {
	return "mymemory"
}

// Translate returns the service text whenever one is present, including the
// warning texts MyMemory sends with a non-200 responseStatus (quota, query
// length). Callers detect those through the marker constants.
func (s *MyMemoryService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	sourceLang := req.SourceLang
	if sourceLang == "" || sourceLang == "auto" {
		sourceLang = "en"
	}

	params := url.Values{}
	params.Set("q", req.Text)
	params.Set("langpair", fmt.Sprintf("%s|%s", sourceLang, req.TargetLang))

	email := s.email
	if email == "" {
		email = cfg.Email
	}
	if email != "" {
		params.Set("de", email)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create request: %v", err)
		return result, err
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result, err
	}
	defer resp.Body.Close()

	var mymemResp struct {
		ResponseData struct {
			TranslatedText string  `json:"translatedText"`
			Match          float64 `json:"match"`
		} `json:"responseData"`
		ResponseStatus  json.Number `json:"responseStatus"`
		ResponseDetails string      `json:"responseDetails"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&mymemResp); err != nil {
		result.Error = fmt.Sprintf("failed to decode response: %v", err)
		return result, err
	}

	status, _ := strconv.Atoi(mymemResp.ResponseStatus.String())
	text := mymemResp.ResponseData.TranslatedText

	if status != http.StatusOK && text == "" {
		result.Error = fmt.Sprintf("API error: %s (%d)", mymemResp.ResponseDetails, status)
		return result, fmt.Errorf("API error: %s", mymemResp.ResponseDetails)
	}

	result.TranslatedText = text
	result.Confidence = min(max(mymemResp.ResponseData.Match, 0), 1)
	result.Metadata = map[string]string{"status": strconv.Itoa(status)}

	return result, nil
}

func (s *MyMemoryService) IsAvailable(ctx context.Context) error {
	return nil
}

func (s *MyMemoryService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{
		"en", "es", "fr", "de", "it", "pt", "ru", "ja", "ko", "zh",
		"ar", "nl", "pl", "tr", "sv", "da", "no", "fi", "el", "he",
		"th", "vi", "id", "ms", "cs", "hu", "ro", "uk", "bg", "ca",
		"be", "kk", "hy", "ka", "am", "hi",
	}, nil
}
