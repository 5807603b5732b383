package model

// TaskClass groups every Task sharing the same (class_name, import_path)
// pair. The pair is the de-duplication key: tasks self-register into their
// TaskClass on construction.
type TaskClass struct {
	ClassName  string
	ImportPath string
	Tasks      []*Task
}

// Key is the de-duplication key used by a TaskClassRegistry.
func (tc *TaskClass) Key() taskClassKey {
	return taskClassKey{tc.ClassName, tc.ImportPath}
}

type taskClassKey struct {
	className  string
	importPath string
}

// TaskClassRegistry de-duplicates TaskClass instances by (class_name,
// import_path) as tasks are constructed.
type TaskClassRegistry struct {
	byKey map[taskClassKey]*TaskClass
	order []*TaskClass
}

// NewTaskClassRegistry creates an empty registry.
func NewTaskClassRegistry() *TaskClassRegistry {
	return &TaskClassRegistry{byKey: make(map[taskClassKey]*TaskClass)}
}

// Resolve returns the TaskClass for (className, importPath), allocating one
// in declaration order on first use, and attaches task to it.
func (r *TaskClassRegistry) Resolve(className, importPath string, task *Task) *TaskClass {
	key := taskClassKey{className, importPath}
	tc, ok := r.byKey[key]
	if !ok {
		tc = &TaskClass{ClassName: className, ImportPath: importPath}
		r.byKey[key] = tc
		r.order = append(r.order, tc)
	}
	tc.Tasks = append(tc.Tasks, task)
	task.TaskClass = tc
	return tc
}

// All returns every TaskClass in declaration order.
func (r *TaskClassRegistry) All() []*TaskClass {
	return r.order
}
