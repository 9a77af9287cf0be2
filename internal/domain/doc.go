// Package domain models probabilistic severe-weather outlooks drawn by a player
// and their verification against NWS local storm reports.
//
// # Data Source
//
// Storm reports come from the NOAA Storm Prediction Center (SPC) daily filtered
// report files, available at https://www.spc.noaa.gov/climo/reports/ as
// "<YYMMDD>_rpts_filtered.csv". One file holds three sections, each introduced
// by its own header line:
//
//	Time,F_Scale,Location,County,State,Lat,Lon,Comments   tornado
//	Time,Speed,Location,County,State,Lat,Lon,Comments     wind
//	Time,Size,Location,County,State,Lat,Lon,Comments      hail
//
// Data rows are not quoted. Comments may contain commas, so everything after the
// seventh field is joined back together. See [ParseReports].
//
// # Significance
//
// Each hazard has a significant-severe threshold that a forecast area may flag:
//
//	Tornado: an EF-scale token of EF2 or higher in the magnitude column
//	Wind:    leading integer speed >= 65 kt
//	Hail:    leading size >= 2.0 in. Sizes >= 10 are hundredths of inches
//	         (175 = 1.75 in) and are scaled before the comparison, because
//	         the largest US hail on record was about 8 inches.
//
// "UNK" and other unparseable magnitudes are never significant.
//
// # Canvas Space
//
// Outlook polygons are drawn in canvas pixels over a regional map image. A
// report is tested against a polygon by projecting its lat/lon into the same
// canvas with a linear equirectangular mapping of the region's bounding box
// (see [Project]). Points outside the box land outside the canvas and simply
// fail containment; they are never clamped.
//
// # Scoring
//
// Per hazard, a report inside any area of that hazard is a hit, otherwise a
// miss. An area with no same-hazard report inside it is a false alarm. Each area
// contributes (p/100 - o)^2 to the Brier score, where o is 1 when at least one
// report verified it. Points: +p for a verified area (+[SignificantBonus] when
// the area is flagged significant and a significant report verified it), -p/2
// for an unverified one; the total is rounded and floored at zero.
package domain
