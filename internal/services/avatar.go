package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "image/color"
  "math/rand"
  "os"
  "strings"

  "github.com/disintegration/imaging"
  "github.com/fogleman/gg"
  "github.com/golang/freetype/truetype"
  "golang.org/x/image/font"

  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/types"
)

// AvatarService renders an initials avatar for a new user and uploads it to
// the bucket. Registration treats every failure here as cosmetic.
type AvatarService interface {
  CreateAndUploadUserAvatar(ctx context.Context, user *types.User) error
}

type avatarService struct {
  log           *logger.Logger
  bucketService BucketService
  bgColors      []color.NRGBA
  fontFace      font.Face
}

// defaultAvatarColors is used when AVATAR_COLORS_JSON_PATH is not provided.
var defaultAvatarColors = []color.NRGBA{
  {R: 0x2e, G: 0x86, B: 0xab, A: 0xff},
  {R: 0xf1, G: 0x8f, B: 0x01, A: 0xff},
  {R: 0xc7, G: 0x3e, B: 0x1d, A: 0xff},
  {R: 0x3b, G: 0x1f, B: 0x2b, A: 0xff},
  {R: 0x6a, G: 0x99, B: 0x4e, A: 0xff},
  {R: 0x5f, G: 0x46, B: 0xb5, A: 0xff},
}

func NewAvatarService(log *logger.Logger, bucketService BucketService) (AvatarService, error) {
  serviceLog := log.With("service", "AvatarService")

  //1) Get Avatar Colors
  bgColors := defaultAvatarColors
  if colorsJSONPath := os.Getenv("AVATAR_COLORS_JSON_PATH"); colorsJSONPath != "" {
    loaded, err := loadColorsFromFile(colorsJSONPath)
    if err != nil {
      return nil, fmt.Errorf("could not load avatar colors: %w", err)
    }
    bgColors = loaded
  }

  //2) Get Font
  fontPath := os.Getenv("AVATAR_FONT")
  if fontPath == "" {
    return nil, fmt.Errorf("env var AVATAR_FONT is empty")
  }
  serviceLog.Info("Loading avatar font from TTF file", "font", fontPath)
  face, err := loadFontFace(fontPath, 206)
  if err != nil {
    return nil, fmt.Errorf("could not load avatar font: %w", err)
  }

  return &avatarService{
    log:           serviceLog,
    bucketService: bucketService,
    bgColors:      bgColors,
    fontFace:      face,
  }, nil
}

func (as *avatarService) CreateAndUploadUserAvatar(ctx context.Context, user *types.User) error {
  if as.bucketService == nil || !as.bucketService.Enabled() {
    return nil
  }
  buf, err := as.generateUserAvatar(user)
  if err != nil {
    return err
  }
  bucketKey := fmt.Sprintf("user_avatars/%s.png", user.ID.String())
  if err := as.bucketService.UploadFile(ctx, bucketKey, bytes.NewReader(buf.Bytes()), "image/png"); err != nil {
    return fmt.Errorf("Failed to upload user avatar: %w", err)
  }
  user.AvatarBucketKey = bucketKey
  user.AvatarURL = as.bucketService.GetPublicURL(bucketKey)
  return nil
}

func (as *avatarService) generateUserAvatar(user *types.User) (bytes.Buffer, error) {
  const size = 512

  dc := gg.NewContext(size, size)

  // Circular mask so the final image is round
  dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
  dc.Clip()

  base := as.bgColors[rand.Intn(len(as.bgColors))]
  dc.SetColor(base)
  dc.DrawRectangle(0, 0, float64(size), float64(size))
  dc.Fill()

  initials := computeInitials(user)

  dc.SetFontFace(as.fontFace)
  tw, th := dc.MeasureString(initials)
  cx, cy := float64(size)/2, float64(size)/2

  dc.SetColor(color.White)
  dc.DrawString(initials, cx-(tw/2)+5, cy+(th/2)-10)

  rendered := dc.Image()
  small := imaging.Fit(rendered, 256, 256, imaging.Lanczos)

  var buf bytes.Buffer
  if err := imaging.Encode(&buf, small, imaging.PNG); err != nil {
    return buf, fmt.Errorf("failed to encode PNG: %w", err)
  }
  return buf, nil
}

// computeInitials falls back to the first letter of the email when no name
// was provided.
func computeInitials(user *types.User) string {
  first := ""
  if user.FirstName != nil {
    first = strings.TrimSpace(*user.FirstName)
  }
  last := ""
  if user.LastName != nil {
    last = strings.TrimSpace(*user.LastName)
  }
  if first == "" && last == "" {
    if user.Email != "" {
      return strings.ToUpper(user.Email[:1])
    }
    return "?"
  }
  initials := ""
  if first != "" {
    initials += strings.ToUpper(first[:1])
  }
  if last != "" {
    initials += strings.ToUpper(last[:1])
  }
  return initials
}

func loadColorsFromFile(jsonPath string) ([]color.NRGBA, error) {
  data, err := os.ReadFile(jsonPath)
  if err != nil {
    return nil, fmt.Errorf("read file error: %w", err)
  }
  var colors []color.NRGBA
  if err := json.Unmarshal(data, &colors); err != nil {
    return nil, fmt.Errorf("json unmarshal error: %w", err)
  }
  if len(colors) == 0 {
    return nil, fmt.Errorf("no colors defined in %s", jsonPath)
  }
  return colors, nil
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
  fontBytes, err := os.ReadFile(fontPath)
  if err != nil {
    return nil, fmt.Errorf("failed to read font file: %w", err)
  }
  parsedFont, err := truetype.Parse(fontBytes)
  if err != nil {
    return nil, fmt.Errorf("failed to parse TTF: %w", err)
  }
  face := truetype.NewFace(parsedFont, &truetype.Options{
    Size:    size,
    DPI:     72,
    Hinting: font.HintingNone,
  })
  return face, nil
}
