package form

import (
	"errors"
	"slices"

	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/conditions"
	"github.com/goliatone/go-pulpoforms/pkg/fields"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
)

var (
	schemaKeys = []string{"id", "version", "fields", "sections", "pages"}

	sectionKeys         = []string{"id", "title", "fields"}
	sectionOptionalKeys = []string{"hidden", "conditionals", "description"}

	pageKeys         = []string{"id", "title", "sections"}
	pageOptionalKeys = []string{"hidden", "conditionals", "description"}
)

// compile runs the construction phases in order. A format problem aborts the
// run; schema problems are collected until the end.
func (f *Form) compile(schema any) {
	err := f.checkFormat(schema)
	if err == nil {
		err = f.buildFields()
	}
	if err == nil {
		err = f.buildSections()
	}
	if err == nil {
		err = f.buildPages()
	}
	if err != nil {
		var formatErr *formerrors.FormatError
		if errors.As(err, &formatErr) {
			f.report.setFormat(formatErr.Messages...)
			return
		}
		f.report.setFormat(formerrors.Textf("%s", err.Error()))
		return
	}

	f.compileConditionals("fields", ItemField)
	f.compileConditionals("sections", ItemSection)
	f.compileConditionals("pages", ItemPage)
	f.checkMappings()
}

func (f *Form) checkFormat(schema any) error {
	doc, ok := values.Map(schema)
	if !ok {
		return formerrors.NewFormatError(formerrors.Textf(
			"Expected schema to be a dictionary, got '%s'", values.TypeName(schema)))
	}
	f.schema = doc

	var messages []formerrors.Message
	for _, key := range values.Keys(doc) {
		if !slices.Contains(schemaKeys, key) {
			messages = append(messages, formerrors.Textf(
				"Key '%s' either doesn't belong in the schema or is duplicated", key))
		}
	}
	for _, key := range schemaKeys {
		if _, present := doc[key]; !present {
			messages = append(messages, formerrors.Textf("Required key '%s' is missing from the schema", key))
		}
	}
	if raw, present := doc["version"]; present {
		version, ok := values.Int(raw)
		if !ok {
			messages = append(messages, formerrors.Textf("Invalid version: '%s' is not a number.", values.String(raw)))
		}
		f.version = version
	}
	for _, key := range []string{"fields", "sections", "pages"} {
		raw, present := doc[key]
		if !present {
			continue
		}
		if _, ok := values.List(raw); !ok {
			messages = append(messages, formerrors.Textf("'%s' property must be a list.", key))
		}
	}
	if len(messages) > 0 {
		return formerrors.NewFormatError(messages...)
	}
	f.id = values.String(doc["id"])
	return nil
}

// items returns the descriptors listed under key. Every entry must be an
// object carrying an id.
func (f *Form) items(key, noun string) ([]map[string]any, error) {
	list, _ := values.List(f.schema[key])
	out := make([]map[string]any, 0, len(list))
	for _, raw := range list {
		item, ok := values.Map(raw)
		if !ok {
			return nil, formerrors.NewFormatError(formerrors.Textf(
				"Every element of '%s' property must be a dictionary, got '%s'.", key, values.TypeName(raw)))
		}
		if _, ok := item["id"]; !ok {
			return nil, formerrors.NewFormatError(formerrors.Textf("A %s is missing the 'id' property.", noun))
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *Form) buildFields() error {
	items, err := f.items("fields", "field")
	if err != nil {
		return err
	}
	for _, item := range items {
		id := values.String(item["id"])
		field, err := fields.Build(f.fieldKinds, f.validatorKinds, item)
		if err != nil {
			f.report.addSchema(ItemField, id, formerrors.MessagesOf(err)...)
			continue
		}
		if _, exists := f.fields[id]; exists {
			f.report.addSchema(ItemField, id, formerrors.Textf("Field '%s' is defined more than once.", id))
			continue
		}
		f.fields[id] = field
		f.fieldOrder = append(f.fieldOrder, id)
	}
	return nil
}

func (f *Form) buildSections() error {
	items, err := f.items("sections", "section")
	if err != nil {
		return err
	}
	available := slices.Clone(f.fieldOrder)
	for _, item := range items {
		id := values.String(item["id"])
		if slices.Contains(f.sectionOrder, id) {
			f.report.addSchema(ItemSection, id, formerrors.Textf("Section '%s' is defined more than once.", id))
		} else {
			f.sectionOrder = append(f.sectionOrder, id)
		}
		f.report.addSchema(ItemSection, id, checkItemKeys(item, sectionKeys, sectionOptionalKeys, "section")...)

		raw, ok := item["fields"]
		if !ok {
			continue
		}
		section := &Section{
			ID:          id,
			Title:       values.String(item["title"]),
			Description: values.String(item["description"]),
			Hidden:      values.Bool(item["hidden"]),
		}
		list, ok := values.List(raw)
		if !ok {
			f.report.addSchema(ItemSection, id, formerrors.Textf(
				"'fields' property must be a list, got '%s'", values.TypeName(raw)))
		}
		for _, ref := range list {
			fieldID := values.String(ref)
			idx := slices.Index(available, fieldID)
			if idx < 0 {
				f.report.addSchema(ItemSection, id, formerrors.Textf(
					"Field '%s' either isn't valid or was already included in a previous section", fieldID))
				continue
			}
			available = slices.Delete(available, idx, idx+1)
			section.fields = append(section.fields, f.fields[fieldID])
			f.sectionOf[fieldID] = section
		}
		f.sections[id] = section
	}
	return nil
}

func (f *Form) buildPages() error {
	items, err := f.items("pages", "page")
	if err != nil {
		return err
	}
	available := slices.Clone(f.sectionOrder)
	for _, item := range items {
		id := values.String(item["id"])
		if slices.Contains(f.pageOrder, id) {
			f.report.addSchema(ItemPage, id, formerrors.Textf("Page '%s' is defined more than once.", id))
		} else {
			f.pageOrder = append(f.pageOrder, id)
		}
		f.report.addSchema(ItemPage, id, checkItemKeys(item, pageKeys, pageOptionalKeys, "page")...)

		page := &Page{
			ID:          id,
			Title:       values.String(item["title"]),
			Description: values.String(item["description"]),
			Hidden:      values.Bool(item["hidden"]),
		}
		list, ok := values.List(item["sections"])
		if raw, present := item["sections"]; present && !ok {
			f.report.addSchema(ItemPage, id, formerrors.Textf(
				"'sections' property must be a list, got '%s'", values.TypeName(raw)))
		}
		for _, ref := range list {
			sectionID := values.String(ref)
			idx := slices.Index(available, sectionID)
			if idx < 0 {
				f.report.addSchema(ItemPage, id, formerrors.Textf(
					"Section '%s' either isn't valid or was already included in a previous page", sectionID))
				continue
			}
			available = slices.Delete(available, idx, idx+1)
			section, ok := f.sections[sectionID]
			if !ok {
				// declared without a fields list; already reported
				continue
			}
			page.sections = append(page.sections, section)
			f.pageOf[sectionID] = page
		}
		f.pages[id] = page
	}
	return nil
}

func checkItemKeys(item map[string]any, expected, optional []string, noun string) []formerrors.Message {
	var messages []formerrors.Message
	for _, key := range values.Keys(item) {
		if !slices.Contains(expected, key) && !slices.Contains(optional, key) {
			messages = append(messages, formerrors.Textf(
				"Key '%s' either doesn't belong in the %s schema or is duplicated", key, noun))
		}
	}
	for _, key := range expected {
		if _, ok := item[key]; !ok {
			messages = append(messages, formerrors.Textf("Required key '%s' is missing from the %s", key, noun))
		}
	}
	return messages
}

func (f *Form) resolve(fieldID string) (conditions.Target, bool) {
	field, ok := f.fields[fieldID]
	if !ok {
		return nil, false
	}
	return field, true
}

// compileConditionals compiles the conditionals declared on every item under
// key, including items that failed to build, so authors see every problem in
// one pass.
func (f *Form) compileConditionals(key, itemType string) {
	list, _ := values.List(f.schema[key])
	for _, raw := range list {
		item, _ := values.Map(raw)
		declared, ok := item["conditionals"]
		if !ok {
			continue
		}
		id := values.String(item["id"])
		compiled, err := conditions.CompileAll(f.conditionKinds, declared, f.resolve)
		if err != nil {
			f.report.addSchema(itemType, id, formerrors.MessagesOf(err)...)
			continue
		}

		switch itemType {
		case ItemField:
			if _, ok := f.fields[id]; ok {
				f.fieldConditionals[id] = compiled
			}
		case ItemSection:
			if section, ok := f.sections[id]; ok {
				section.conditionals = compiled
			}
		case ItemPage:
			if page, ok := f.pages[id]; ok {
				page.conditionals = compiled
			}
		}
	}
}

func (f *Form) checkMappings() {
	for _, id := range f.fieldOrder {
		if _, ok := f.sectionOf[id]; !ok {
			f.report.addSchema(ItemField, id, formerrors.Textf("Item has not been mapped to any section"))
		}
	}
	for _, id := range f.sectionOrder {
		if _, ok := f.pageOf[id]; !ok {
			f.report.addSchema(ItemSection, id, formerrors.Textf("Item has not been mapped to any page"))
		}
	}
}
