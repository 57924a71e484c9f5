package shopmonkey

import (
	"encoding/json"

	"github.com/sarmadashoor/LeadManager/internal/leads/repository"
)

// LeadData maps a qualified website lead onto the fields the lead store
// persists. Missing enrichment degrades to nil fields, never to a dropped
// lead.
func (l WebsiteLead) LeadData() repository.CreateLeadData {
	data := repository.CreateLeadData{
		CRMSource:          "shopmonkey",
		CRMWorkOrderID:     l.Order.ID,
		CRMWorkOrderNumber: &l.Order.Number,
		CustomerExternalID: &l.Order.CustomerID,
		VehicleExternalID:  l.Order.VehicleID,
		VehicleDescription: l.Order.GeneratedVehicleName,
		ServiceType:        "window-tinting",
		EstimatedCostCents: &l.Order.TotalCostCents,
	}

	if name := ExtractName(l.Customer, l.Order.GeneratedCustomerName); name != "" {
		data.CustomerName = &name
	}
	if email := ExtractEmail(l.Customer); email != "" {
		data.CustomerEmail = &email
	}
	if phoneNumber := ExtractPhone(l.Customer); phoneNumber != "" {
		data.CustomerPhone = &phoneNumber
	}

	if l.Order.CoalescedName != nil && *l.Order.CoalescedName != "" {
		data.ServiceName = l.Order.CoalescedName
	} else {
		data.ServiceName = l.Order.Name
	}

	if l.Vehicle != nil {
		data.VehicleYear = l.Vehicle.Year
		data.VehicleMake = l.Vehicle.Make
		data.VehicleModel = l.Vehicle.Model
	}

	metadata, err := json.Marshal(map[string]any{
		"shopmonkey_location_id": l.Order.LocationID,
		"original_status":        l.Order.Status,
		"workflow_status_id":     l.Order.WorkflowStatusID,
	})
	if err == nil {
		data.CRMMetadata = metadata
	}

	return data
}
