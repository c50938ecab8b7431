package services

import (
	"context"
	"os"
	"strings"

	"github.com/phoebezhou222/AllerGEN-AI/utils"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

type OCRService struct {
	client *rekognition.Client
}

func NewOCRService() (*OCRService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		return nil, err
	}
	return &OCRService{client: rekognition.NewFromConfig(cfg)}, nil
}

// DetectLabelText runs text detection over a base64 data-URI photo of a
// product label and returns the recognized lines joined with spaces. The raw
// text goes to the AI extractor afterwards; no parsing happens here.
func (s *OCRService) DetectLabelText(ctx context.Context, dataURI string) (string, error) {
	raw, _, err := utils.DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	out, err := s.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: raw},
	})
	if err != nil {
		return "", err
	}

	var lines []string
	for _, det := range out.TextDetections {
		if det.Type == types.TextTypesLine && det.DetectedText != nil {
			lines = append(lines, *det.DetectedText)
		}
	}
	return strings.Join(lines, " "), nil
}
