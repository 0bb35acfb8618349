package common

// AuthHeaderName is the HTTP header used to carry the bearer access token
// on requests to the media API.
const AuthHeaderName = "Authorization"
