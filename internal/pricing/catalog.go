package pricing

// DefaultCatalog is the demo catalog loaded into an empty store on startup.
func DefaultCatalog() []NewProduct {
	return []NewProduct{
		{Name: "Apple AirPods Pro", SKU: "AP-PRO-2023", Category: "Audio", Price: MustParsePrice("229.99")},
		{Name: "Samsung Galaxy Watch 4", SKU: "SGW-40MM", Category: "Wearables", Price: MustParsePrice("199.99")},
		{Name: "Sony WH-1000XM4", SKU: "SONY-WH1000", Category: "Audio", Price: MustParsePrice("279.99")},
		{Name: "Nintendo Switch", SKU: "NINT-SWITCH-V2", Category: "Gaming", Price: MustParsePrice("299.99")},
		{Name: "iPad Air (2022)", SKU: "IPAD-AIR-22", Category: "Tablets", Price: MustParsePrice("549.99")},
		{Name: "Bose QuietComfort Earbuds", SKU: "BOSE-QC-EB", Category: "Audio", Price: MustParsePrice("199.99")},
		{Name: "Fitbit Versa 3", SKU: "FITBIT-V3", Category: "Wearables", Price: MustParsePrice("169.99")},
		{Name: "DJI Mini 3 Pro", SKU: "DJI-MINI3P", Category: "Electronics", Price: MustParsePrice("759.99")},
		{Name: "Canon EOS R6", SKU: "CANON-EOSR6", Category: "Cameras", Price: MustParsePrice("2299.99")},
		{Name: "Logitech MX Master 3", SKU: "LOGI-MXM3", Category: "Computers", Price: MustParsePrice("99.99")},
	}
}
