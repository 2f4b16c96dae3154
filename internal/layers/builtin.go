package layers

// builtin is the default layer table. These rows replace what used to be a
// bespoke lookup function per data source; the resolver treats every row
// identically. Radius caps reflect how far each kind of feature is relevant
// from a query point, not service limits.
var builtin = []LayerConfig{
	// Hazard and environmental polygons.
	{ID: "fema_flood_zones", Label: "FEMA Flood Zones", ServiceURL: "https://hazards.fema.gov/arcgis/rest/services/public/NFHL/MapServer", LayerIndex: 28, Geometry: GeometryPolygon, MaxRadiusMiles: 2},
	{ID: "wetlands", Label: "National Wetlands Inventory", ServiceURL: "https://fwspublicservices.wim.usgs.gov/server/rest/services/Wetlands/MapServer", LayerIndex: 0, Geometry: GeometryPolygon, MaxRadiusMiles: 2},
	{ID: "fire_hazard_zones", Label: "Fire Hazard Severity Zones", ServiceURL: "https://services1.arcgis.com/jUJYIo9tSA7EHvfZ/ArcGIS/rest/services/FHSZ_SRA_LRA_Combined/FeatureServer", LayerIndex: 0, Geometry: GeometryPolygon, MaxRadiusMiles: 5},
	{ID: "epa_superfund", Label: "EPA Superfund Sites", ServiceURL: "https://services.arcgis.com/cJ9YHowT8TU7DUyn/ArcGIS/rest/services/Superfund_National_Priorities_List/FeatureServer", LayerIndex: 0, Geometry: GeometryPoint, MaxRadiusMiles: 10},
	{ID: "epa_brownfields", Label: "EPA Brownfield Sites", ServiceURL: "https://services.arcgis.com/cJ9YHowT8TU7DUyn/ArcGIS/rest/services/Brownfield_Sites/FeatureServer", LayerIndex: 0, Geometry: GeometryPoint, MaxRadiusMiles: 5},
	{ID: "epa_toxic_release", Label: "EPA Toxic Release Inventory", ServiceURL: "https://services.arcgis.com/cJ9YHowT8TU7DUyn/ArcGIS/rest/services/Toxic_Release_Inventory/FeatureServer", LayerIndex: 0, Geometry: GeometryPoint, MaxRadiusMiles: 5},

	// Administrative boundaries.
	{ID: "census_counties", Label: "Counties", ServiceURL: "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/State_County/MapServer", LayerIndex: 1, Geometry: GeometryPolygon, MaxRadiusMiles: 25},
	{ID: "census_places", Label: "Incorporated Places", ServiceURL: "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/Places_CouSub_ConCity_SubMCD/MapServer", LayerIndex: 0, Geometry: GeometryPolygon, MaxRadiusMiles: 10},
	{ID: "census_tracts", Label: "Census Tracts", ServiceURL: "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/Tracts_Blocks/MapServer", LayerIndex: 0, Geometry: GeometryPolygon, MaxRadiusMiles: 5},
	{ID: "census_zcta", Label: "ZIP Code Tabulation Areas", ServiceURL: "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/PUMA_TAD_TAZ_UGA_ZCTA/MapServer", LayerIndex: 1, Geometry: GeometryPolygon, MaxRadiusMiles: 10},
	{ID: "congressional_districts", Label: "Congressional Districts", ServiceURL: "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/Legislative/MapServer", LayerIndex: 0, Geometry: GeometryPolygon, MaxRadiusMiles: 25},
	{ID: "school_districts", Label: "Unified School Districts", ServiceURL: "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/School/MapServer", LayerIndex: 2, Geometry: GeometryPolygon, MaxRadiusMiles: 10},
	{ID: "opportunity_zones", Label: "Opportunity Zones", ServiceURL: "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/ArcGIS/rest/services/Opportunity_Zones/FeatureServer", LayerIndex: 0, Geometry: GeometryPolygon, MaxRadiusMiles: 10},

	// Infrastructure points.
	{ID: "hospitals", Label: "Hospitals", ServiceURL: "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/ArcGIS/rest/services/Hospitals/FeatureServer", LayerIndex: 0, Geometry: GeometryPoint, MaxRadiusMiles: 25},
	{ID: "fire_stations", Label: "Fire Stations", ServiceURL: "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/ArcGIS/rest/services/Fire_Stations/FeatureServer", LayerIndex: 0, Geometry: GeometryPoint, MaxRadiusMiles: 10},
	{ID: "police_stations", Label: "Local Law Enforcement", ServiceURL: "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/ArcGIS/rest/services/Local_Law_Enforcement/FeatureServer", LayerIndex: 0, Geometry: GeometryPoint, MaxRadiusMiles: 10},
	{ID: "public_schools", Label: "Public Schools", ServiceURL: "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/ArcGIS/rest/services/Public_Schools/FeatureServer", LayerIndex: 0, Geometry: GeometryPoint, MaxRadiusMiles: 10},
	{ID: "colleges", Label: "Colleges and Universities", ServiceURL: "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/ArcGIS/rest/services/Colleges_and_Universities/FeatureServer", LayerIndex: 0, Geometry: GeometryPoint, MaxRadiusMiles: 25},
	{ID: "cell_towers", Label: "Cellular Towers", ServiceURL: "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/ArcGIS/rest/services/Cellular_Towers/FeatureServer", LayerIndex: 0, Geometry: GeometryPoint, MaxRadiusMiles: 5},
	{ID: "power_plants", Label: "Power Plants", ServiceURL: "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/ArcGIS/rest/services/Power_Plants/FeatureServer", LayerIndex: 0, Geometry: GeometryPoint, MaxRadiusMiles: 25},
	{ID: "electric_substations", Label: "Electric Substations", ServiceURL: "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/ArcGIS/rest/services/Electric_Substations/FeatureServer", LayerIndex: 0, Geometry: GeometryPoint, MaxRadiusMiles: 10},
	{ID: "airports", Label: "Airports", ServiceURL: "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/ArcGIS/rest/services/Airports/FeatureServer", LayerIndex: 0, Geometry: GeometryPoint, MaxRadiusMiles: 50},
	{ID: "ports", Label: "Major Ports", ServiceURL: "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/ArcGIS/rest/services/Major_Ports/FeatureServer", LayerIndex: 0, Geometry: GeometryPoint, MaxRadiusMiles: 50},
	{ID: "ev_charging", Label: "EV Charging Stations", ServiceURL: "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/ArcGIS/rest/services/Alternative_Fueling_Stations/FeatureServer", LayerIndex: 0, Geometry: GeometryPoint, MaxRadiusMiles: 10},
	{ID: "superfund_nearby", Label: "USGS Mineral Operations", ServiceURL: "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/ArcGIS/rest/services/Mineral_Operations/FeatureServer", LayerIndex: 0, Geometry: GeometryPoint, MaxRadiusMiles: 25},

	// Linear infrastructure.
	{ID: "railroads", Label: "Railroads", ServiceURL: "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/ArcGIS/rest/services/Railroads/FeatureServer", LayerIndex: 0, Geometry: GeometryPolyline, MaxRadiusMiles: 5},
	{ID: "transmission_lines", Label: "Electric Transmission Lines", ServiceURL: "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/ArcGIS/rest/services/Transmission_Lines/FeatureServer", LayerIndex: 0, Geometry: GeometryPolyline, MaxRadiusMiles: 5},
	{ID: "natural_gas_pipelines", Label: "Natural Gas Pipelines", ServiceURL: "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/ArcGIS/rest/services/Natural_Gas_Pipelines/FeatureServer", LayerIndex: 0, Geometry: GeometryPolyline, MaxRadiusMiles: 5},
	{ID: "interstate_highways", Label: "Interstate Highways", ServiceURL: "https://services.arcgis.com/P3ePLMYs2RVChkJx/ArcGIS/rest/services/USA_Freeway_System/FeatureServer", LayerIndex: 1, Geometry: GeometryPolyline, MaxRadiusMiles: 10},
	{ID: "rivers", Label: "Major Rivers and Streams", ServiceURL: "https://hydro.nationalmap.gov/arcgis/rest/services/nhd/MapServer", LayerIndex: 6, Geometry: GeometryPolyline, MaxRadiusMiles: 5},
}

// DefaultRegistry returns a registry populated with the built-in layer table.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, cfg := range builtin {
		// Builtin rows are validated by tests; Register only fails on
		// malformed rows.
		if err := r.Register(cfg); err != nil {
			panic(err)
		}
	}
	return r
}
