package trace

// Coverage summarizes traceability gaps over the reference graph. All
// fields are pure aggregations with no ordering sensitivity.
type Coverage struct {
	RequirementsWithDesign       int      `json:"requirements_with_design"`
	RequirementsWithVerification int      `json:"requirements_with_verification"`
	RequirementsWithValidation   int      `json:"requirements_with_validation"`
	DesignsWithVerification      int      `json:"designs_with_verification"`
	RisksWithMitigation          int      `json:"risks_with_mitigation"`
	OrphanedItems                []string `json:"orphaned_items"`
	CoveragePercentage           float64  `json:"coverage_percentage"`
}

// AnalyzeCoverage checks one-hop reachability for every requirement: does
// any design, verification, or validation item link back to it? A
// requirement with none of the three is orphaned. The headline percentage
// counts design coverage only.
func AnalyzeCoverage(items []Item) Coverage {
	cov := Coverage{OrphanedItems: []string{}}

	// Invert LinkedItems once: target ID → set of linking item types.
	linkedBy := make(map[string]map[ItemType]bool)
	for _, it := range items {
		for _, ref := range it.LinkedItems {
			if linkedBy[ref] == nil {
				linkedBy[ref] = make(map[ItemType]bool)
			}
			linkedBy[ref][it.Type] = true
		}
	}

	var requirements int
	for _, it := range items {
		in := linkedBy[it.ID]
		switch it.Type {
		case TypeRequirement:
			requirements++
			hasDesign := in[TypeDesign]
			hasVerification := in[TypeVerification]
			hasValidation := in[TypeValidation]
			if hasDesign {
				cov.RequirementsWithDesign++
			}
			if hasVerification {
				cov.RequirementsWithVerification++
			}
			if hasValidation {
				cov.RequirementsWithValidation++
			}
			if !hasDesign && !hasVerification && !hasValidation {
				cov.OrphanedItems = append(cov.OrphanedItems, it.ID)
			}
		case TypeDesign:
			if in[TypeVerification] {
				cov.DesignsWithVerification++
			}
		case TypeRisk:
			if in[TypeDesign] {
				cov.RisksWithMitigation++
			}
		}
	}

	if requirements > 0 {
		cov.CoveragePercentage = float64(cov.RequirementsWithDesign) / float64(requirements) * 100
	}
	return cov
}
