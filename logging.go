package spot

// Service is the name of this service.
const Service = "spot"
