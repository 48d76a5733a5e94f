package services

import (
  "context"
  "encoding/base64"
  "encoding/json"
  "fmt"
  "strings"

  "github.com/openai/openai-go"
  "github.com/openai/openai-go/option"
  "gorm.io/datatypes"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/types"
  "github.com/wayfarer-org/wayfarer-backend/internal/utils"
)

const chatSystemPrompt = "You are a helpful travel recommendation assistant. " +
  "Provide useful and accurate travel advice based on the user's inputs and preferences." +
  "Take in consideration the ticket, the accomodation, and other documents the user added." +
  "If no relevant information is available, ask the user for more details." +
  "Provide a structured itinerary section with day-by-day bullet points when possible, " +
  "and summarize constraints or missing info explicitly (use 'not provided' if needed)." +
  "Include a section titled <h2>Recommended locations</h2> with a bullet list of specific places " +
  "(include hotel/accommodation if provided). Each bullet should include a place name " +
  "plus city/country or address. If no locations are available, include a single bullet " +
  "with 'not provided'." +
  "If not mentioned otherwise, sort the recommended locations by time and create a visiting schedule." +
  "Answer concisely and structure your reply using HTML only (no Markdown). " +
  "Use semantic HTML elements like <p>, <ul>, <ol>, <li>, <h2>, and <strong> where appropriate. " +
  "Return only an HTML snippet without enclosing <html> or <body> tags."

const titleSystemPrompt = "You generate very short, descriptive titles for travel planning chats. " +
  "Respond with ONLY the title, no quotes, maximum 60 characters."

const itinerarySystemPrompt = "Extract itinerary days from the assistant response. " +
  "Return ONLY strict JSON in this shape: " +
  `{"days":[{"dayLabel":"Day 1 (25 November 2025)","date":"25 November 2025",` +
  `"items":["Arrive in London","Visit the Tower of London"]}]} ` +
  `If no itinerary exists, return {"days":[]}.`

// DefaultAssistantReply stands in when the model answers with no content.
const DefaultAssistantReply = "The recommendation engine did not return any content."

// DefaultChatTitle is the placeholder used when title generation fails.
const DefaultChatTitle = "New travel chat"

const maxTitleLength = 60

// DocumentAnalysisRequest carries one uploaded file into the gateway. For
// PDFs the caller extracts the text up front (PDFText); images travel inline
// as a base64 data URL.
type DocumentAnalysisRequest struct {
  SystemPrompt string
  IntroText    string
  ContentType  string
  FileBytes    []byte
  PDFText      string
}

type OpenAIService interface {
  Configured() bool
  Chat(ctx context.Context, history []*types.ChatMessage, profile *types.TripProfile) (string, error)
  StreamChat(ctx context.Context, history []*types.ChatMessage, profile *types.TripProfile, onDelta func(chunk string)) (string, error)
  GenerateTitle(ctx context.Context, firstUserMessage, assistantReply string) (string, error)
  ExtractItineraryJSON(ctx context.Context, assistantReply string) datatypes.JSON
  AnalyzeDocument(ctx context.Context, history []*types.ChatMessage, req DocumentAnalysisRequest) (string, error)
}

type openAIService struct {
  client openai.Client
  apiKey string
  model  string
  log    *logger.Logger
}

func NewOpenAIService(log *logger.Logger) OpenAIService {
  serviceLog := log.With("service", "OpenAIService")
  apiKey := utils.GetEnv("OPENAI_API_KEY", "", log)
  model := utils.GetEnv("OPENAI_MODEL", "gpt-4o-mini", log)
  baseURL := utils.GetEnv("OPENAI_BASE_URL", "", log)

  opts := []option.RequestOption{option.WithAPIKey(apiKey)}
  if baseURL != "" {
    // Any chat-completions compatible endpoint works here, e.g. Groq.
    opts = append(opts, option.WithBaseURL(baseURL))
  }
  if apiKey == "" {
    serviceLog.Warn("OPENAI_API_KEY is not set, recommendation calls will fail until configured")
  }
  return &openAIService{
    client: openai.NewClient(opts...),
    apiKey: apiKey,
    model:  model,
    log:    serviceLog,
  }
}

func (s *openAIService) Configured() bool {
  return s.apiKey != ""
}

func (s *openAIService) requireAPIKey() error {
  if s.apiKey == "" {
    return apperr.NotConfigured("OpenAI API key is not configured on the server.")
  }
  return nil
}

func (s *openAIService) Chat(ctx context.Context, history []*types.ChatMessage, profile *types.TripProfile) (string, error) {
  if err := s.requireAPIKey(); err != nil {
    return "", err
  }
  messages := s.baseMessages(profile)
  messages = appendHistory(messages, history)

  completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
    Model:    openai.ChatModel(s.model),
    Messages: messages,
  })
  if err != nil {
    s.log.Warn("chat completion failed", "error", err)
    return "", apperr.Upstream("Failed to contact the recommendation engine.", err)
  }
  if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
    return DefaultAssistantReply, nil
  }
  return completion.Choices[0].Message.Content, nil
}

// StreamChat feeds each content delta to onDelta as it arrives and returns
// the accumulated reply. Mid-stream failures surface as errors so the caller
// can retry with the non-streaming variant.
func (s *openAIService) StreamChat(ctx context.Context, history []*types.ChatMessage, profile *types.TripProfile, onDelta func(chunk string)) (string, error) {
  if err := s.requireAPIKey(); err != nil {
    return "", err
  }
  messages := s.baseMessages(profile)
  messages = appendHistory(messages, history)

  stream := s.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
    Model:    openai.ChatModel(s.model),
    Messages: messages,
  })
  defer stream.Close()

  acc := openai.ChatCompletionAccumulator{}
  for stream.Next() {
    chunk := stream.Current()
    acc.AddChunk(chunk)
    if len(chunk.Choices) > 0 {
      if delta := chunk.Choices[0].Delta.Content; delta != "" && onDelta != nil {
        onDelta(delta)
      }
    }
  }
  if err := stream.Err(); err != nil {
    s.log.Warn("streaming chat completion failed", "error", err)
    return "", apperr.Upstream("Failed to contact the recommendation engine.", err)
  }
  if len(acc.Choices) == 0 || acc.Choices[0].Message.Content == "" {
    return DefaultAssistantReply, nil
  }
  return acc.Choices[0].Message.Content, nil
}

func (s *openAIService) GenerateTitle(ctx context.Context, firstUserMessage, assistantReply string) (string, error) {
  if err := s.requireAPIKey(); err != nil {
    return "", err
  }
  var sb strings.Builder
  sb.WriteString("First user message: ")
  sb.WriteString(firstUserMessage)
  if strings.TrimSpace(assistantReply) != "" {
    sb.WriteString("\nAssistant reply: ")
    sb.WriteString(assistantReply)
  }

  completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
    Model: openai.ChatModel(s.model),
    Messages: []openai.ChatCompletionMessageParamUnion{
      openai.SystemMessage(titleSystemPrompt),
      openai.UserMessage(sb.String()),
    },
  })
  if err != nil {
    s.log.Warn("title generation failed", "error", err)
    return "", apperr.Upstream("Failed to generate chat title.", err)
  }
  if len(completion.Choices) == 0 {
    return DefaultChatTitle, nil
  }
  title := strings.TrimSpace(completion.Choices[0].Message.Content)
  if len(title) > maxTitleLength {
    title = strings.TrimSpace(title[:maxTitleLength])
  }
  if title == "" {
    return DefaultChatTitle, nil
  }
  return title, nil
}

// ExtractItineraryJSON asks the model to lift a structured day-by-day
// itinerary out of a finished reply. Every failure path returns nil; an
// itinerary is decoration, never worth failing a chat over.
func (s *openAIService) ExtractItineraryJSON(ctx context.Context, assistantReply string) datatypes.JSON {
  if strings.TrimSpace(assistantReply) == "" || s.apiKey == "" {
    return nil
  }

  completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
    Model: openai.ChatModel(s.model),
    Messages: []openai.ChatCompletionMessageParamUnion{
      openai.SystemMessage(itinerarySystemPrompt),
      openai.UserMessage("Assistant response:\n" + assistantReply),
    },
  })
  if err != nil {
    s.log.Debug("itinerary extraction failed", "error", err)
    return nil
  }
  if len(completion.Choices) == 0 {
    return nil
  }
  content := stripCodeFences(completion.Choices[0].Message.Content)
  if strings.TrimSpace(content) == "" {
    return nil
  }
  var parsed struct {
    Days []json.RawMessage `json:"days"`
  }
  if err := json.Unmarshal([]byte(content), &parsed); err != nil {
    s.log.Debug("itinerary extraction returned non-JSON content", "error", err)
    return nil
  }
  if len(parsed.Days) == 0 {
    return nil
  }
  return datatypes.JSON(content)
}

func (s *openAIService) AnalyzeDocument(ctx context.Context, history []*types.ChatMessage, req DocumentAnalysisRequest) (string, error) {
  if err := s.requireAPIKey(); err != nil {
    return "", err
  }

  messages := []openai.ChatCompletionMessageParamUnion{
    openai.SystemMessage(req.SystemPrompt),
  }
  messages = appendHistory(messages, history)

  parts := []openai.ChatCompletionContentPartUnionParam{
    openai.TextContentPart(req.IntroText),
  }
  switch {
  case strings.HasPrefix(req.ContentType, "image/"):
    dataURL := "data:" + req.ContentType + ";base64," + base64.StdEncoding.EncodeToString(req.FileBytes)
    parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
      URL:    dataURL,
      Detail: "high",
    }))
  case strings.EqualFold(req.ContentType, "application/pdf"):
    parts = append(parts, openai.TextContentPart(req.PDFText))
  default:
    fallback := base64.StdEncoding.EncodeToString(req.FileBytes)
    parts = append(parts, openai.TextContentPart(
      fmt.Sprintf("Unknown file type (%s). Base64 payload:\n%s", req.ContentType, fallback),
    ))
  }
  messages = append(messages, openai.UserMessage(parts))

  completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
    Model:    openai.ChatModel(s.model),
    Messages: messages,
  })
  if err != nil {
    s.log.Warn("document analysis failed", "error", err)
    return "", apperr.Upstream("Failed to contact the recommendation engine.", err)
  }
  if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
    return "The document could not be interpreted.", nil
  }
  return completion.Choices[0].Message.Content, nil
}

func (s *openAIService) baseMessages(profile *types.TripProfile) []openai.ChatCompletionMessageParamUnion {
  messages := []openai.ChatCompletionMessageParamUnion{
    openai.SystemMessage(chatSystemPrompt),
  }
  if profileContext := buildProfileContext(profile); profileContext != "" {
    messages = append(messages, openai.SystemMessage(profileContext))
  }
  return messages
}

func appendHistory(messages []openai.ChatCompletionMessageParamUnion, history []*types.ChatMessage) []openai.ChatCompletionMessageParamUnion {
  for _, m := range history {
    if m == nil {
      continue
    }
    switch m.Role {
    case types.MessageRoleAssistant:
      messages = append(messages, openai.AssistantMessage(m.Content))
    default:
      messages = append(messages, openai.UserMessage(m.Content))
    }
  }
  return messages
}

// buildProfileContext renders the trip profile into a system message. An
// empty profile contributes nothing.
func buildProfileContext(profile *types.TripProfile) string {
  if profile == nil {
    return ""
  }
  fields := []struct {
    label string
    value *string
  }{
    {"Destination", profile.Destination},
    {"Start date", profile.StartDate},
    {"End date", profile.EndDate},
    {"Budget", profile.Budget},
    {"Travelers", profile.Travelers},
    {"Interests", profile.Interests},
    {"Constraints", profile.Constraints},
  }
  var sb strings.Builder
  any := false
  for _, f := range fields {
    if f.value == nil || strings.TrimSpace(*f.value) == "" {
      continue
    }
    if !any {
      sb.WriteString("Trip profile (user-provided). Use this to personalize recommendations.\n")
      any = true
    }
    sb.WriteString(f.label)
    sb.WriteString(": ")
    sb.WriteString(strings.TrimSpace(*f.value))
    sb.WriteString("\n")
  }
  if !any {
    return ""
  }
  sb.WriteString("If a field is missing, treat it as not provided and avoid guessing.")
  return sb.String()
}
