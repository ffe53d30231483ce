package parser

import "strings"

// exemptionCaption opens the table listing objects the development regulation
// does not apply to.
const exemptionCaption = "Причины отнесения земельного участка к виду земельного участка"

// checkUnregulated reports whether the parcel carries objects exempt from the
// development regulation. The exemption table must pass the same 8-column
// marker check as the limits table; when the captioned candidate fails it,
// the next table is tried once. A validated table with fewer than 3 rows
// after the marker is an empty placeholder, not a finding.
func checkUnregulated(tables []RawTable) bool {
	for i, t := range tables {
		if !strings.HasPrefix(t.Header(), exemptionCaption) {
			continue
		}
		if ok, present := exemptionRows(t); ok {
			return present
		}
		if i+1 < len(tables) {
			if ok, present := exemptionRows(tables[i+1]); ok {
				return present
			}
		}
		return false
	}
	return false
}

func exemptionRows(t RawTable) (ok, present bool) {
	marker, ok := locateMarkerRow(t.Cells)
	if !ok {
		return false, false
	}
	return true, len(t.Cells)-(marker+1) >= 3
}
