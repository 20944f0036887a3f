package providers

// Candle is one OHLCV bar, carrying its source for provenance.
type Candle struct {
	T          int64   `json:"t"`
	O          float64 `json:"o"`
	H          float64 `json:"h"`
	L          float64 `json:"l"`
	C          float64 `json:"c"`
	V          float64 `json:"v"`
	Resolution string  `json:"resolution"`
	AsOf       float64 `json:"asof"`
	Source     string  `json:"source"`
}

// GasPrices is the Etherscan gas price estimate response shape.
type GasPrices struct {
	Safe    float64 `json:"safe"`
	Propose float64 `json:"propose"`
	Fast    float64 `json:"fast"`
	Source  string  `json:"source"`
}

// MempoolData is the mempool.space statistics response shape.
type MempoolData struct {
	Txs    int    `json:"txs"`
	Size   int    `json:"size"`
	Source string `json:"source"`
}
