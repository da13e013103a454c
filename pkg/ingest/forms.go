package ingest

import "fmt"

// FormType names one of the fixed record schemas.
type FormType string

const (
	GoodsServices    FormType = "goods-services"
	SalariesForm1    FormType = "salaries-form1"
	SalaryEntryForm2 FormType = "salary-entry-form2"
)

// Forms lists every supported form type.
var Forms = []FormType{GoodsServices, SalariesForm1, SalaryEntryForm2}

// Column maps a spreadsheet header to a record field key.
type Column struct {
	Header string
	Key    string
}

type formSchema struct {
	label    string
	table    string
	columns  []Column
	required []string
}

var schemas = map[FormType]formSchema{
	GoodsServices: {
		label: "Goods & Services",
		table: "goods_services_data",
		columns: []Column{
			{"Facility Name", "facility_name"},
			{"Reporting Period", "reporting_period"},
			{"Item Description", "item_description"},
			{"Quantity", "quantity"},
			{"Unit Cost", "unit_cost"},
			{"Total Cost", "total_cost"},
			{"Supplier", "supplier"},
			{"Date Purchased", "date_purchased"},
			{"Notes", "notes"},
		},
		required: []string{"facility_name", "reporting_period", "item_description", "quantity", "unit_cost", "total_cost"},
	},
	SalariesForm1: {
		label: "Salaries Form 1",
		table: "salaries_form1_data",
		columns: []Column{
			{"Facility Name", "facility_name"},
			{"Employee Name", "employee_name"},
			{"Position", "position"},
			{"Salary Amount", "salary_amount"},
			{"Payment Date", "payment_date"},
			{"Payment Method", "payment_method"},
			{"Notes", "notes"},
		},
		required: []string{"facility_name", "employee_name", "position", "salary_amount"},
	},
	SalaryEntryForm2: {
		label: "Salary Entry Form 2",
		table: "salary_entry_form2_data",
		columns: []Column{
			{"Facility Name", "facility_name"},
			{"Employee ID", "employee_id"},
			{"Employee Name", "employee_name"},
			{"Position", "position"},
			{"Basic Salary", "basic_salary"},
			{"Allowances", "allowances"},
			{"Deductions", "deductions"},
			{"Net Salary", "net_salary"},
			{"Payment Date", "payment_date"},
			{"Payment Status", "payment_status"},
		},
		required: []string{"facility_name", "employee_id", "employee_name", "position", "basic_salary", "net_salary"},
	},
}

// ParseFormType validates s against the supported form types.
func ParseFormType(s string) (FormType, error) {
	f := FormType(s)
	if _, ok := schemas[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownForm, s)
	}
	return f, nil
}

// Label is the human readable form name.
func (f FormType) Label() string { return schemas[f].label }

// Table is the name of the table the form's records are stored in.
func (f FormType) Table() string { return schemas[f].table }

// Columns returns the spreadsheet header layout in display order.
func (f FormType) Columns() []Column { return schemas[f].columns }

// Required returns the field keys a manual entry must supply.
func (f FormType) Required() []string { return schemas[f].required }

func (f FormType) headerKeys() map[string]string {
	out := make(map[string]string, len(schemas[f].columns))
	for _, c := range schemas[f].columns {
		out[c.Header] = c.Key
	}
	return out
}
