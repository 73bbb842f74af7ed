// Package query builds VDMS JSON commands and their float32 vector blobs.
// It owns the command dialect only; the server decides what the commands mean.
package query

import (
	"github.com/cwlacewe/vdms-go/internal/domain"
)

// Command names understood by the server.
const (
	CmdAddDescriptorSet  = "AddDescriptorSet"
	CmdFindDescriptorSet = "FindDescriptorSet"
	CmdAddDescriptor     = "AddDescriptor"
	CmdFindDescriptor    = "FindDescriptor"
	CmdAddEntity         = "AddEntity"
	CmdFindEntity        = "FindEntity"
	CmdFailed            = "FailedCommand"
)

// propertyEntityClass is the entity class of the per-collection property
// registry that tracks the union of metadata keys.
const propertyEntityClass = "properties"

// Command is a single JSON command object keyed by command name.
type Command map[string]any

// Results describes what FindDescriptor/FindEntity should return.
type Results struct {
	List  []string
	Blob  bool
	Count bool
	Limit int
}

func (r *Results) toMap() map[string]any {
	out := map[string]any{}
	if len(r.List) > 0 {
		out["list"] = r.List
	}
	if r.Blob {
		out["blob"] = true
	}
	if r.Count {
		out["count"] = ""
	}
	if r.Limit > 0 {
		out["limit"] = r.Limit
	}
	return out
}

// AddDescriptorSet creates a descriptor set bound to an engine and metric.
func AddDescriptorSet(col domain.Collection) Command {
	entity := map[string]any{
		"name":       col.Name,
		"dimensions": col.Dimensions,
	}
	if col.Engine != "" {
		entity["engine"] = string(col.Engine)
	}
	if col.Metric != "" {
		entity["metric"] = string(col.Metric)
	}
	return Command{CmdAddDescriptorSet: entity}
}

// FindDescriptorSet looks up a descriptor set; storeIndex asks the server to
// persist the set's index after mutations.
func FindDescriptorSet(name string, storeIndex bool) Command {
	entity := map[string]any{"set": name}
	if storeIndex {
		entity["storeIndex"] = true
	}
	return Command{CmdFindDescriptorSet: entity}
}

// AddDescriptor inserts descriptors into a set. A single property map is sent
// as "properties"; several are sent as "batch_properties" with all vectors
// concatenated in one blob.
func AddDescriptor(set string, props []map[string]any) Command {
	entity := map[string]any{"set": set}
	switch {
	case len(props) == 1 && len(props[0]) > 0:
		entity["properties"] = props[0]
	case len(props) > 1:
		entity["batch_properties"] = props
	}
	return Command{CmdAddDescriptor: entity}
}

// FindParams configures a FindDescriptor command.
type FindParams struct {
	KNeighbors  int
	Constraints domain.Constraints
	Results     *Results
}

// FindDescriptor searches a descriptor set by KNN, constraints, or both.
func FindDescriptor(set string, p FindParams) Command {
	entity := map[string]any{"set": set}
	if p.KNeighbors > 0 {
		entity["k_neighbors"] = p.KNeighbors
	}
	if len(p.Constraints) > 0 {
		entity["constraints"] = encodeConstraints(p.Constraints)
	}
	if p.Results != nil {
		entity["results"] = p.Results.toMap()
	}
	return Command{CmdFindDescriptor: entity}
}

// encodeConstraints renders the conjunctive filter as {key: [op, value]}.
func encodeConstraints(c domain.Constraints) map[string]any {
	out := make(map[string]any, len(c))
	for key, cond := range c {
		out[key] = []any{string(cond.Op), cond.Value}
	}
	return out
}

// AddPropertyEntity registers the collection's metadata key union as a blob
// entity so new clients can discover properties added by others.
func AddPropertyEntity(collection string, properties []string) (Command, []byte) {
	joined := ""
	for i, p := range properties {
		if i > 0 {
			joined += ","
		}
		joined += p
	}
	entity := map[string]any{
		"class": propertyEntityClass,
		"blob":  true,
		"properties": map[string]any{
			"name":                 collection,
			"type":                 "queryable properties",
			domain.ContentProperty: joined,
		},
	}
	return Command{CmdAddEntity: entity}, []byte(joined)
}

// FindPropertyEntity looks up the property registry of a collection.
// deletion marks the entity for removal instead (used when replacing it).
func FindPropertyEntity(collection string, unique, deletion bool) Command {
	entity := map[string]any{
		"class": propertyEntityClass,
		"results": map[string]any{
			"blob":  true,
			"count": "",
			"list":  []string{domain.ContentProperty},
		},
	}
	if unique {
		entity["unique"] = true
	}
	constraints := map[string]any{
		"name": []any{string(domain.OpEqual), collection},
	}
	if deletion {
		constraints[domain.DeletionProperty] = []any{string(domain.OpEqual), 1}
	}
	entity["constraints"] = constraints
	return Command{CmdFindEntity: entity}
}

// Name returns the command name of a single-key command object.
func (c Command) Name() string {
	for k := range c {
		return k
	}
	return ""
}
