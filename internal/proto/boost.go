package proto

// ActionBoost is the action tag carried by every boost request.
const ActionBoost = "boost"

// BoostRequest is the body POSTed to the boost endpoint.
// Message is the only variable-length field; it controls the payload size.
type BoostRequest struct {
	Action         string  `json:"action"`
	Split          float64 `json:"split"`
	ValueMsat      int64   `json:"value_msat"`
	ValueMsatTotal int64   `json:"value_msat_total"`
	Timestamp      string  `json:"timestamp"` // ISO-8601, UTC
	Message        string  `json:"message"`
}
