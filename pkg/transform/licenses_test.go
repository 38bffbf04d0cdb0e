package transform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSKUDisplayName(t *testing.T) {
	require.Equal(t, "Office 365 E3", SKUDisplayName("ENTERPRISEPACK"))
	require.Equal(t, "Office 365 E5", SKUDisplayName("enterprisepremium"))
	require.Equal(t, "Enterprise Mobility + Security E5", SKUDisplayName("EMSPREMIUM"))
	require.Equal(t, "Enterprise Mobility + Security E3", SKUDisplayName("EMS"))
	require.Equal(t, "MYSTERY_SKU", SKUDisplayName("MYSTERY_SKU"))
	require.Equal(t, "Unknown License", SKUDisplayName(""))
}

func TestEstimateMonthlyCost(t *testing.T) {
	require.InDelta(t, 22.00, EstimateMonthlyCost("ENTERPRISEPACK"), 0.001)
	require.InDelta(t, 16.40, EstimateMonthlyCost("EMSPREMIUM"), 0.001)
	require.InDelta(t, 10.60, EstimateMonthlyCost("EMS"), 0.001)
	require.InDelta(t, 0.00, EstimateMonthlyCost("FLOW_FREE"), 0.001)
	require.InDelta(t, 15.00, EstimateMonthlyCost("MYSTERY_SKU"), 0.001)
	require.InDelta(t, 15.00, EstimateMonthlyCost(""), 0.001)
}

func TestLicenseRow(t *testing.T) {
	sku := SubscribedSKU{
		SkuID:            "sku-1",
		SkuPartNumber:    "ENTERPRISEPACK",
		CapabilityStatus: "Enabled",
		ConsumedUnits:    80,
		PrepaidUnits:     PrepaidUnits{Enabled: 100, Suspended: 2, Warning: 1},
	}

	rec := LicenseRow("t1", sku)
	require.Equal(t, "Office 365 E3", rec.DisplayName)
	require.Equal(t, 100, rec.TotalUnits)
	require.Equal(t, 20, rec.AvailableUnits)
	require.InDelta(t, 22.00, rec.MonthlyCostUSD, 0.001)
}

func TestLicenseRowOverconsumedClampsToZero(t *testing.T) {
	sku := SubscribedSKU{
		SkuID:         "sku-1",
		SkuPartNumber: "SPB",
		ConsumedUnits: 12,
		PrepaidUnits:  PrepaidUnits{Enabled: 10},
	}
	rec := LicenseRow("t1", sku)
	require.Equal(t, 0, rec.AvailableUnits)
}

func TestRoleRowPrivilegeDetection(t *testing.T) {
	rec := RoleRow("t1", Role{ID: "r1", DisplayName: "Global Administrator"})
	require.True(t, rec.IsPrivileged)

	rec = RoleRow("t1", Role{ID: "r2", DisplayName: "Directory Readers"})
	require.False(t, rec.IsPrivileged)
}

func TestRoleAssignmentsDeduplicates(t *testing.T) {
	members := []DirectoryMember{
		{ODataType: "#microsoft.graph.user", ID: "u1"},
		{ODataType: "#microsoft.graph.user", ID: "u1"},
		{ODataType: "#microsoft.graph.servicePrincipal", ID: "sp1"},
	}
	links := RoleAssignments("t1", "r1", members)
	require.Len(t, links, 1)
	require.Equal(t, "u1", links[0].UserID)
}
