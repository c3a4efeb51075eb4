package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on controller to agent requests.
const AccessTokenHeaderName = "access_token"

// ServiceSubject is the subject written into tokens minted by the controller.
const ServiceSubject = "controller"
