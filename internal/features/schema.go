package features

// Column name prefixes used by the one-hot encoder
const (
	PrefixAirline    = "OPERA"
	PrefixFlightType = "TIPOVUELO"
	PrefixMonth      = "MES"
)

// Schema is the fixed, ordered set of feature columns consumed by the
// classifier. The order matches weights trained on the historical dataset
// and must not change.
var Schema = []string{
	"OPERA_Latin American Wings",
	"MES_7",
	"MES_10",
	"OPERA_Grupo LATAM",
	"MES_12",
	"TIPOVUELO_I",
	"MES_4",
	"MES_11",
	"OPERA_Sky Airline",
	"OPERA_Copa Air",
}

// NumFeatures is the width of every feature row
var NumFeatures = len(Schema)
