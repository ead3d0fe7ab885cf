package policy

import "mercator-hq/guardian/pkg/detect"

// FallbackVersion identifies the builtin minimal policy in audit records.
const FallbackVersion = "builtin-fallback"

// Fallback returns the minimal policy used when no policy source can be read.
// Government ID numbers and cloud access keys are blocked; everything else is
// redacted through the default rule.
func Fallback() *Snapshot {
	return NewSnapshot(FallbackVersion, Settings{EnforcementMode: ModeBlocking}, []Rule{
		{Detector: detect.SSN, Sensitivity: SensitivityCritical, Action: ActionBlock},
		{Detector: detect.AWSAccessKey, Sensitivity: SensitivityCritical, Action: ActionBlock},
		{Detector: detect.ICD10Code, Sensitivity: SensitivityHigh, Action: ActionRedact},
	})
}
