// Package validate implements structural tile inspection without a full
// geometry decode, plus optional deep simplicity/validity reporting.
// Per-layer stats are collected by scanning field tags rather than
// decoding geometry, so a malformed or oversized tile can be triaged
// cheaply before committing to a full feature decode.
package validate

import (
	"mvtengine/pkg/mvtengine/codec"
	"mvtengine/pkg/mvtengine/errs"
	"mvtengine/pkg/mvtengine/geomops"
	"mvtengine/pkg/mvtengine/pbf"
)

// Finding is one structural or semantic issue Info/Report* surfaces.
type Finding struct {
	Code    string
	Message string
	Layer   string
}

// Finding codes, the closed vocabulary a caller can branch on.
const (
	FindingMixedVersions      = "MIXED_VERSIONS"
	FindingRepeatedLayerName  = "REPEATED_LAYER_NAME"
	FindingUnknownTag         = "UNKNOWN_TAG"
	FindingInvalidBuffer      = "INVALID_BUFFER"
	FindingUnsupportedVersion = "LAYER_HAS_UNSUPPORTED_VERSION"
)

// LayerSummary describes one layer's structural shape.
type LayerSummary struct {
	Name         string
	Version      int
	Extent       uint32
	FeatureCount int
	KeyCount     int
	ValueCount   int
	UnknownTags  int
}

// Report is Info's structural scan result.
type Report struct {
	Layers   []LayerSummary
	Findings []Finding
}

// Info scans data field by field, counting features/keys/values per
// layer and collecting structural findings, without decoding any
// feature's geometry or attribute values.
func Info(data []byte) (*Report, error) {
	if len(data) == 0 {
		return nil, errs.New(errs.InvalidArgument, "empty tile data")
	}
	report := &Report{}
	seenNames := make(map[string]int)
	versions := make(map[int]struct{})

	r := pbf.NewReader(data)
	for r.Next() {
		if r.Tag() != 3 { // layer field
			report.Findings = append(report.Findings, Finding{Code: FindingUnknownTag, Message: "unexpected top-level field"})
			r.Skip()
			continue
		}
		body := r.Bytes()
		if r.Err() != nil {
			break
		}
		summary, findings, err := scanLayer(body)
		if err != nil {
			return nil, err
		}
		report.Findings = append(report.Findings, findings...)
		report.Layers = append(report.Layers, summary)
		seenNames[summary.Name]++
		versions[summary.Version] = struct{}{}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	for name, count := range seenNames {
		if count > 1 {
			report.Findings = append(report.Findings, Finding{
				Code: FindingRepeatedLayerName, Layer: name,
				Message: "layer name appears more than once in the tile",
			})
		}
	}
	if len(versions) > 1 {
		report.Findings = append(report.Findings, Finding{
			Code: FindingMixedVersions, Message: "tile mixes layers of different versions",
		})
	}
	return report, nil
}

const (
	layerFieldName     = 1
	layerFieldFeatures = 2
	layerFieldKeys     = 3
	layerFieldValues   = 4
	layerFieldExtent   = 5
	layerFieldVersion  = 15
)

func scanLayer(body []byte) (LayerSummary, []Finding, error) {
	summary := LayerSummary{Version: 1, Extent: 4096}
	var findings []Finding
	r := pbf.NewReader(body)
	haveName := false
	for r.Next() {
		switch r.Tag() {
		case layerFieldName:
			summary.Name = r.String()
			haveName = true
		case layerFieldFeatures:
			r.Bytes()
			summary.FeatureCount++
		case layerFieldKeys:
			r.String()
			summary.KeyCount++
		case layerFieldValues:
			r.Bytes()
			summary.ValueCount++
		case layerFieldExtent:
			summary.Extent = uint32(r.Uvarint())
		case layerFieldVersion:
			summary.Version = int(r.Uvarint())
		default:
			summary.UnknownTags++
			findings = append(findings, Finding{Code: FindingUnknownTag, Layer: summary.Name, Message: "unrecognized layer field tag"})
			r.Skip()
		}
	}
	if err := r.Err(); err != nil {
		return LayerSummary{}, nil, err
	}
	if !haveName {
		return LayerSummary{}, nil, errs.New(errs.CorruptInput, "layer missing name field")
	}
	if summary.Version > 2 {
		findings = append(findings, Finding{
			Code: FindingUnsupportedVersion, Layer: summary.Name,
			Message: "layer declares a version newer than this engine supports",
		})
	}
	return summary, findings, nil
}

// ReportGeometrySimplicity fully decodes every v2 layer in data (lax v1
// layers are skipped: simplicity is a v2-only invariant) and reports
// every non-simple geometry found.
func ReportGeometrySimplicity(data []byte) ([]Finding, error) {
	return walkGeometries(data, func(layerName string, f codec.Feature) []Finding {
		simple, diags := geomops.IsSimple(f.Geometry)
		if simple {
			return nil
		}
		out := make([]Finding, len(diags))
		for i, d := range diags {
			out[i] = Finding{Code: "NOT_SIMPLE", Layer: layerName, Message: d.Reason}
		}
		return out
	})
}

// ReportGeometryValidity is ReportGeometrySimplicity's validity-rule
// counterpart.
func ReportGeometryValidity(data []byte) ([]Finding, error) {
	return walkGeometries(data, func(layerName string, f codec.Feature) []Finding {
		valid, diags := geomops.IsValid(f.Geometry)
		if valid {
			return nil
		}
		out := make([]Finding, len(diags))
		for i, d := range diags {
			out[i] = Finding{Code: "NOT_VALID", Layer: layerName, Message: d.Reason}
		}
		return out
	})
}

func walkGeometries(data []byte, check func(string, codec.Feature) []Finding) ([]Finding, error) {
	var findings []Finding
	r := pbf.NewReader(data)
	for r.Next() {
		if r.Tag() != 3 {
			r.Skip()
			continue
		}
		body := r.Bytes()
		if r.Err() != nil {
			break
		}
		decoded, err := codec.DecodeLayer(pbf.NewReader(body), codec.DecodeOptions{Upgrade: false})
		if err != nil {
			if errs.Of(err, errs.UnsupportedVersion) {
				continue // v1 without upgrade: simplicity/validity is v2-only
			}
			return nil, err
		}
		if decoded.Version != 2 {
			continue
		}
		for _, f := range decoded.Features {
			if f.Geometry.IsEmpty() {
				continue
			}
			findings = append(findings, check(decoded.Name, f)...)
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return findings, nil
}
