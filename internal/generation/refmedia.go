package generation

import (
	"errors"
	"strings"
)

// maxReferenceImages caps how many reference images a multi-image provider
// will accept from a single request.
const maxReferenceImages = 14

// ReferenceImage is a decoded-from-data-URL reference media payload. Data
// holds the base64 string without the data-URL prefix.
type ReferenceImage struct {
	MIME string
	Data string
}

// ReferenceImageParams are the auxiliary knobs that accompany a reference
// image. Defaults apply independently per missing field.
type ReferenceImageParams struct {
	Strength          float64
	DenoisingStrength float64
	ResizeMode        string
	ControlnetType    *string
	ControlnetStrength float64
}

// ExtractBase64FromDataURL splits a data URL into its MIME type and raw
// base64 payload. The URL must start with "data:", contain a comma separating
// metadata from payload, and flag the payload as base64. The MIME type
// defaults to image/png when absent.
func ExtractBase64FromDataURL(dataURL string) (string, string, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", "", errors.New("invalid data URL: must start with 'data:'")
	}

	metadata, payload, found := strings.Cut(dataURL, ",")
	if !found {
		return "", "", errors.New("invalid data URL format: missing comma separator")
	}

	if !strings.Contains(metadata, "base64") {
		return "", "", errors.New("data URL is not base64 encoded")
	}

	mimeType, _, _ := strings.Cut(strings.TrimPrefix(metadata, "data:"), ";")
	if mimeType == "" {
		mimeType = "image/png"
	}

	return mimeType, payload, nil
}

// extractReferenceImage pulls the singular reference_image out of a parameter
// document. Absence or a malformed payload is a normal request shape, not an
// error; callers receive nil either way.
func extractReferenceImage(params map[string]any) *ReferenceImage {
	ref, ok := params["reference_image"].(map[string]any)
	if !ok {
		return nil
	}
	return decodeReferenceEntry(ref)
}

// extractReferenceImages pulls the plural reference_images list, falling back
// to the singular field, capped at maxReferenceImages. Malformed entries are
// skipped rather than failing the request.
func extractReferenceImages(params map[string]any) []ReferenceImage {
	entries, ok := params["reference_images"].([]any)
	if !ok {
		if single := extractReferenceImage(params); single != nil {
			return []ReferenceImage{*single}
		}
		return nil
	}

	var images []ReferenceImage
	for _, entry := range entries {
		if len(images) >= maxReferenceImages {
			break
		}
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if img := decodeReferenceEntry(obj); img != nil {
			images = append(images, *img)
		}
	}
	return images
}

func decodeReferenceEntry(ref map[string]any) *ReferenceImage {
	dataURL, ok := ref["data"].(string)
	if !ok {
		return nil
	}
	mime, data, err := ExtractBase64FromDataURL(dataURL)
	if err != nil {
		return nil
	}
	return &ReferenceImage{MIME: mime, Data: data}
}

// referenceImageParams reads the auxiliary strength/denoising/resize/control
// parameters with their documented defaults.
func referenceImageParams(params map[string]any) ReferenceImageParams {
	out := ReferenceImageParams{
		Strength:           0.75,
		DenoisingStrength:  0.70,
		ResizeMode:         "crop",
		ControlnetStrength: 1.0,
	}

	ref, ok := params["reference_image"].(map[string]any)
	if !ok {
		return out
	}

	out.Strength = paramFloat(ref, "strength", out.Strength)
	out.DenoisingStrength = paramFloat(ref, "denoisingStrength", out.DenoisingStrength)
	out.ResizeMode = paramString(ref, "resizeMode", out.ResizeMode)
	if t, ok := ref["controlnetType"].(string); ok {
		out.ControlnetType = &t
	}
	out.ControlnetStrength = paramFloat(ref, "controlnetStrength", out.ControlnetStrength)

	return out
}
