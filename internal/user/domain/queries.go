package domain

const QueryTypeUserLookup = "UserLookup"

// UserLookupRequest asks for display names of a batch of users. Unknown ids
// are omitted from the response rather than faulting the lookup.
type UserLookupRequest struct {
	UserIDs []string `json:"userIds"`
}

type UserSummary struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type UserLookupResponse struct {
	Users []UserSummary `json:"users"`
}
