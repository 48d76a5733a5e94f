package services

import (
  "bytes"
  "strings"

  "github.com/ledongthuc/pdf"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
)

// DocumentKind selects the extraction prompt for an uploaded travel document.
type DocumentKind string

const (
  DocumentKindTicket        DocumentKind = "ticket"
  DocumentKindAccommodation DocumentKind = "accommodation"
  DocumentKindOther         DocumentKind = "document"
)

// maxUploadBytes caps uploads at 10MB.
const maxUploadBytes = 10 * 1024 * 1024

// pdfTextBudget bounds how much extracted PDF text gets sent upstream.
const pdfTextBudget = 8000

// uploadMarkerPrefixes identify the synthetic user messages recorded for
// file uploads. Chats whose latest user message is one of these cannot be
// edited or regenerated.
var uploadMarkerPrefixes = []string{
  "uploaded airplane ticket:",
  "uploaded accommodation invoice:",
  "uploaded document:",
}

// IsUploadMarker reports whether text is a synthetic upload message.
func IsUploadMarker(text string) bool {
  normalized := strings.ToLower(strings.TrimSpace(text))
  for _, prefix := range uploadMarkerPrefixes {
    if strings.HasPrefix(normalized, prefix) {
      return true
    }
  }
  return false
}

// UploadedFile is one multipart file pulled out of an upload request.
type UploadedFile struct {
  Name        string
  ContentType string
  Data        []byte
}

type documentKindSpec struct {
  requiredError string
  fallbackName  string
  markerPrefix  string
  systemPrompt  string
  introText     func(fileName string) string
  pdfPrefix     string
}

var documentKinds = map[DocumentKind]documentKindSpec{
  DocumentKindTicket: {
    requiredError: "A ticket file is required.",
    fallbackName:  "ticket",
    markerPrefix:  "Uploaded airplane ticket: ",
    systemPrompt: "You are a travel assistant that reads airline tickets, boarding passes, and flight confirmations. " +
      "Extract structured details: passenger name, airline, booking reference, flight number(s), " +
      "departure and arrival airport names and IATA codes, terminals/gates, dates, times, seat, baggage, " +
      "layovers, and notable rules. " +
      "Respond concisely using HTML only. Use short headings and bullet lists. " +
      "If a field is missing, state 'not provided' rather than guessing.",
    introText: func(string) string {
      return "Please analyze this uploaded airplane ticket/boarding pass and summarize the travel details and constraints in HTML."
    },
    pdfPrefix: "Ticket PDF text (truncated):\n",
  },
  DocumentKindAccommodation: {
    requiredError: "An accommodation invoice or booking file is required.",
    fallbackName:  "accommodation",
    markerPrefix:  "Uploaded accommodation invoice: ",
    systemPrompt: "You are a travel assistant that reads accommodation invoices and booking confirmations. " +
      "Extract structured details: guest name, property name, address, booking/confirmation number, " +
      "check-in and check-out dates/times, number of guests, room type, nightly rate and currency, " +
      "total cost with taxes/fees, included meals (e.g., breakfast), cancellation policy, payment status, " +
      "contact details, and special notes or restrictions. " +
      "Respond concisely using HTML only. Use short headings and bullet lists. " +
      "When listing the details, use explicit labels like 'Property name:' and 'Address:'. " +
      "If a field is missing, state 'not provided' rather than guessing.",
    introText: func(string) string {
      return "Please analyze this uploaded accommodation invoice/booking confirmation and summarize the stay details and constraints in HTML."
    },
    pdfPrefix: "Accommodation PDF text (truncated):\n",
  },
  DocumentKindOther: {
    requiredError: "A document file is required.",
    fallbackName:  "document",
    markerPrefix:  "Uploaded document: ",
    systemPrompt: "You are a travel assistant that reads miscellaneous travel documents (itineraries, " +
      "insurance policies, visa confirmations, car rentals, activity bookings, mails, and receipts). " +
      "Extract structured details: document type, traveler names, booking/reference numbers, " +
      "dates/times, locations, costs and currency, policies or restrictions, and important notes. " +
      "Respond concisely using HTML only. Use short headings and bullet lists. " +
      "If a field is missing, state 'not provided' rather than guessing.",
    introText: func(fileName string) string {
      return "Please analyze this uploaded travel document and summarize the details and constraints in HTML. " +
        "File name: " + fileName + "."
    },
    pdfPrefix: "Document PDF text (truncated):\n",
  },
}

type DocumentService interface {
  Validate(file *UploadedFile, kind DocumentKind) error
  FileName(file *UploadedFile, kind DocumentKind) string
  MarkerText(kind DocumentKind, fileName string) string
  AnalysisRequest(file *UploadedFile, kind DocumentKind, fileName string) DocumentAnalysisRequest
}

type documentService struct {
  log *logger.Logger
}

func NewDocumentService(log *logger.Logger) DocumentService {
  return &documentService{
    log: log.With("service", "DocumentService"),
  }
}

func (ds *documentService) Validate(file *UploadedFile, kind DocumentKind) error {
  spec := documentKinds[kind]
  if file == nil || len(file.Data) == 0 {
    return apperr.Validation(spec.requiredError)
  }
  supported := strings.HasPrefix(file.ContentType, "image/") || strings.EqualFold(file.ContentType, "application/pdf")
  if !supported {
    return apperr.Validation("Only PDF or image files are supported.")
  }
  if len(file.Data) > maxUploadBytes {
    return apperr.Validation("File too large. Please upload files up to 10MB.")
  }
  return nil
}

func (ds *documentService) FileName(file *UploadedFile, kind DocumentKind) string {
  if file == nil || file.Name == "" {
    return documentKinds[kind].fallbackName
  }
  return file.Name
}

func (ds *documentService) MarkerText(kind DocumentKind, fileName string) string {
  return documentKinds[kind].markerPrefix + fileName
}

func (ds *documentService) AnalysisRequest(file *UploadedFile, kind DocumentKind, fileName string) DocumentAnalysisRequest {
  spec := documentKinds[kind]
  req := DocumentAnalysisRequest{
    SystemPrompt: spec.systemPrompt,
    IntroText:    spec.introText(fileName),
    ContentType:  file.ContentType,
    FileBytes:    file.Data,
  }
  if strings.EqualFold(file.ContentType, "application/pdf") {
    req.PDFText = ds.extractPDFText(file.Data, spec.pdfPrefix)
  }
  return req
}

// extractPDFText pulls plain text out of the PDF, truncated to the budget.
// Extraction failures degrade to a hint instead of an error: the upstream
// model still gets the conversation and intro text.
func (ds *documentService) extractPDFText(data []byte, prefix string) (text string) {
  if len(data) == 0 {
    return "No PDF content provided."
  }
  // The parser panics on some malformed files.
  defer func() {
    if r := recover(); r != nil {
      ds.log.Warn("PDF text extraction panicked", "panic", r)
      text = "Unable to extract text from PDF. Please rely on the image or provide key details manually."
    }
  }()

  reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
  if err != nil {
    ds.log.Warn("failed to open PDF for text extraction", "error", err)
    return "Unable to extract text from PDF. Please rely on the image or provide key details manually."
  }
  plain, err := reader.GetPlainText()
  if err != nil {
    ds.log.Warn("failed to extract PDF text", "error", err)
    return "Unable to extract text from PDF. Please rely on the image or provide key details manually."
  }
  var buf bytes.Buffer
  if _, err := buf.ReadFrom(plain); err != nil {
    ds.log.Warn("failed to read extracted PDF text", "error", err)
    return "Unable to extract text from PDF. Please rely on the image or provide key details manually."
  }
  extracted := strings.TrimSpace(buf.String())
  if len(extracted) > pdfTextBudget {
    extracted = extracted[:pdfTextBudget]
  }
  if extracted == "" {
    return "PDF text could not be extracted."
  }
  return prefix + extracted
}
