package shopmonkey

// Order is a ShopMonkey work order as returned by GET /order.
type Order struct {
	ID                    string  `json:"id"`
	Number                string  `json:"number"`
	Name                  *string `json:"name"`
	CustomerID            string  `json:"customerId"`
	VehicleID             *string `json:"vehicleId"`
	CoalescedName         *string `json:"coalescedName"`
	Complaint             *string `json:"complaint"`
	Status                string  `json:"status"`
	Authorized            bool    `json:"authorized"`
	TotalCostCents        int     `json:"totalCostCents"`
	CreatedDate           string  `json:"createdDate"`
	UpdatedDate           string  `json:"updatedDate"`
	LocationID            string  `json:"locationId"`
	GeneratedCustomerName *string `json:"generatedCustomerName"`
	GeneratedVehicleName  *string `json:"generatedVehicleName"`
	MessageCount          int     `json:"messageCount"`
	WorkflowStatusID      string  `json:"workflowStatusId"`
}

// Customer is a ShopMonkey customer record.
type Customer struct {
	ID           string        `json:"id"`
	FirstName    *string       `json:"firstName"`
	LastName     *string       `json:"lastName"`
	Emails       []EmailEntry  `json:"emails"`
	PhoneNumbers []PhoneNumber `json:"phoneNumbers"`
}

// EmailEntry is one of a customer's email addresses.
type EmailEntry struct {
	Email   string `json:"email"`
	Primary bool   `json:"primary"`
}

// PhoneNumber is one of a customer's phone numbers.
type PhoneNumber struct {
	Number  string `json:"number"`
	Primary bool   `json:"primary"`
	Type    string `json:"type"`
}

// Vehicle is a ShopMonkey vehicle record.
type Vehicle struct {
	ID    string  `json:"id"`
	Year  *int    `json:"year"`
	Make  *string `json:"make"`
	Model *string `json:"model"`
}

type orderListResponse struct {
	Data []Order `json:"data"`
}

type customerResponse struct {
	Data Customer `json:"data"`
}

type vehicleResponse struct {
	Data Vehicle `json:"data"`
}
