package transform

import "strings"

// The SKU catalog is keyed by substring because part numbers arrive with
// tenant-specific prefixes and suffixes. Patterns are ordered most-specific
// first so EMSPREMIUM is not swallowed by EMS.
type skuEntry struct {
	pattern     string
	displayName string
	monthlyUSD  float64
}

var skuCatalog = []skuEntry{
	{"ENTERPRISEPREMIUM", "Office 365 E5", 35.00},
	{"ENTERPRISEPACK", "Office 365 E3", 22.00},
	{"EXCHANGEENTERPRISE", "Exchange Online Plan 2", 8.00},
	{"EXCHANGESTANDARD", "Exchange Online Plan 1", 4.00},
	{"SMB_BUSINESS_ESSENTIALS", "Microsoft 365 Business Basic", 6.00},
	{"SMB_BUSINESS_PREMIUM", "Microsoft 365 Business Premium", 22.00},
	{"STANDARDWOFFPACK", "Office 365 E1", 12.50},
	{"POWER_BI_PRO", "Power BI Pro", 10.00},
	{"EMSPREMIUM", "Enterprise Mobility + Security E5", 16.40},
	{"EMS", "Enterprise Mobility + Security E3", 10.60},
	{"VISIOCLIENT", "Visio Online Plan 2", 15.00},
	{"PROJECTPREMIUM", "Project Online Premium", 55.00},
	{"TEAMS_EXPLORATORY", "Teams Exploratory", 0.00},
	{"FLOW_FREE", "Power Automate Free", 0.00},
	{"WINDOWS_STORE", "Windows Store for Business", 7.00},
	{"DEVELOPERPACK", "Office 365 E3 Developer", 19.00},
	{"STREAM", "Microsoft Stream", 3.00},
	{"SPB", "Microsoft 365 Business Standard", 12.50},
}

const defaultMonthlyCostUSD = 15.00

// EstimateMonthlyCost returns the estimated per-seat monthly cost in USD
// for a SKU part number, or a flat default for unrecognized SKUs.
func EstimateMonthlyCost(skuPartNumber string) float64 {
	if skuPartNumber == "" {
		return defaultMonthlyCostUSD
	}
	upper := strings.ToUpper(skuPartNumber)
	for _, e := range skuCatalog {
		if strings.Contains(upper, e.pattern) {
			return e.monthlyUSD
		}
	}
	return defaultMonthlyCostUSD
}

// SKUDisplayName returns a friendly name for a SKU part number, falling
// back to the part number itself when the catalog has no match.
func SKUDisplayName(skuPartNumber string) string {
	if skuPartNumber == "" {
		return "Unknown License"
	}
	upper := strings.ToUpper(skuPartNumber)
	for _, e := range skuCatalog {
		if strings.Contains(upper, e.pattern) {
			return e.displayName
		}
	}
	return skuPartNumber
}

// LicenseRow maps a subscribed SKU into a storable record.
func LicenseRow(tenantID string, sku SubscribedSKU) LicenseRecord {
	total := sku.PrepaidUnits.Enabled
	available := total - sku.ConsumedUnits
	if available < 0 {
		available = 0
	}
	return LicenseRecord{
		SkuID:          sku.SkuID,
		TenantID:       tenantID,
		SkuPartNumber:  orNA(sku.SkuPartNumber),
		DisplayName:    SKUDisplayName(sku.SkuPartNumber),
		Status:         orNA(sku.CapabilityStatus),
		TotalUnits:     total,
		ConsumedUnits:  sku.ConsumedUnits,
		AvailableUnits: available,
		SuspendedUnits: sku.PrepaidUnits.Suspended,
		WarningUnits:   sku.PrepaidUnits.Warning,
		MonthlyCostUSD: EstimateMonthlyCost(sku.SkuPartNumber),
	}
}
