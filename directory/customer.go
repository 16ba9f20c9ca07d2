package directory

// Customer describes a customer record held by the Customer Directory. The
// portal never stores customers itself; it only keeps these transient
// references around for the session and checkout flows.
type Customer struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Source string `json:"source"`
}
