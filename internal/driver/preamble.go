package driver

import "strings"

// PreambleOptions selects the variant of the runtime preamble.
type PreambleOptions struct {
	// Header replaces the __OBJC2__ guard by "#pragma once".
	Header bool
	// MSExtensions picks the __declspec(dllimport) flavour.
	MSExtensions bool
}

// runtimeDecls are the dispatch, exception, sync and enumeration entry
// points every rewritten unit may call.
const runtimeDecls = "__OBJC_RW_DLLIMPORT struct objc_object *objc_msgSend(struct objc_object *, struct objc_selector *, ...);\n" +
	"__OBJC_RW_DLLIMPORT struct objc_object *objc_msgSendSuper(struct objc_super *, struct objc_selector *, ...);\n" +
	"__OBJC_RW_DLLIMPORT struct objc_object* objc_msgSend_stret(struct objc_object *, struct objc_selector *, ...);\n" +
	"__OBJC_RW_DLLIMPORT struct objc_object* objc_msgSendSuper_stret(struct objc_super *, struct objc_selector *, ...);\n" +
	"__OBJC_RW_DLLIMPORT double objc_msgSend_fpret(struct objc_object *, struct objc_selector *, ...);\n" +
	"__OBJC_RW_DLLIMPORT struct objc_object *objc_getClass(const char *);\n" +
	"__OBJC_RW_DLLIMPORT struct objc_class *class_getSuperclass(struct objc_class *);\n" +
	"__OBJC_RW_DLLIMPORT struct objc_object *objc_getMetaClass(const char *);\n" +
	"__OBJC_RW_DLLIMPORT void objc_exception_throw(struct objc_object *);\n" +
	"__OBJC_RW_DLLIMPORT void objc_exception_try_enter(void *);\n" +
	"__OBJC_RW_DLLIMPORT void objc_exception_try_exit(void *);\n" +
	"__OBJC_RW_DLLIMPORT struct objc_object *objc_exception_extract(void *);\n" +
	"__OBJC_RW_DLLIMPORT int objc_exception_match(struct objc_class *, struct objc_object *);\n" +
	"__OBJC_RW_DLLIMPORT void objc_sync_enter(struct objc_object *);\n" +
	"__OBJC_RW_DLLIMPORT void objc_sync_exit(struct objc_object *);\n" +
	"__OBJC_RW_DLLIMPORT Protocol *objc_getProtocol(const char *);\n" +
	"#ifndef __FASTENUMERATIONSTATE\n" +
	"struct __objcFastEnumerationState {\n\t" +
	"unsigned long state;\n\t" +
	"void **itemsPtr;\n\t" +
	"unsigned long *mutationsPtr;\n\t" +
	"unsigned long extra[5];\n};\n" +
	"__OBJC_RW_DLLIMPORT void objc_enumerationMutation(struct objc_object *);\n" +
	"#define __FASTENUMERATIONSTATE\n" +
	"#endif\n"

const constantStringDecls = "#ifndef __NSCONSTANTSTRINGIMPL\n" +
	"struct __NSConstantStringImpl {\n" +
	"  int *isa;\n" +
	"  int flags;\n" +
	"  char *str;\n" +
	"  long length;\n" +
	"};\n" +
	"#ifdef CF_EXPORT_CONSTANT_STRING\n" +
	"extern \"C\" __declspec(dllexport) int __CFConstantStringClassReference[];\n" +
	"#else\n" +
	"__OBJC_RW_DLLIMPORT int __CFConstantStringClassReference[];\n" +
	"#endif\n" +
	"#define __NSCONSTANTSTRINGIMPL\n" +
	"#endif\n"

const blockDecls = "#ifndef BLOCK_IMPL\n" +
	"#define BLOCK_IMPL\n" +
	"struct __block_impl {\n" +
	"  void *isa;\n" +
	"  int Flags;\n" +
	"  int Reserved;\n" +
	"  void *FuncPtr;\n" +
	"};\n" +
	"// Runtime copy/destroy helper functions (from Block_private.h)\n" +
	"#ifdef __OBJC_EXPORT_BLOCKS\n" +
	"extern \"C\" __declspec(dllexport) void _Block_object_assign(void *, const void *, const int);\n" +
	"extern \"C\" __declspec(dllexport) void _Block_object_dispose(const void *, const int);\n" +
	"extern \"C\" __declspec(dllexport) void *_NSConcreteGlobalBlock[32];\n" +
	"extern \"C\" __declspec(dllexport) void *_NSConcreteStackBlock[32];\n" +
	"#else\n" +
	"__OBJC_RW_DLLIMPORT void _Block_object_assign(void *, const void *, const int);\n" +
	"__OBJC_RW_DLLIMPORT void _Block_object_dispose(const void *, const int);\n" +
	"__OBJC_RW_DLLIMPORT void *_NSConcreteGlobalBlock[32];\n" +
	"__OBJC_RW_DLLIMPORT void *_NSConcreteStackBlock[32];\n" +
	"#endif\n" +
	"#endif\n"

// Preamble returns the fixed runtime declarations prepended to every
// rewritten unit.
func Preamble(opts PreambleOptions) string {
	var sb strings.Builder
	if opts.Header {
		sb.WriteString("#pragma once\n")
	} else {
		sb.WriteString("#ifndef __OBJC2__\n#define __OBJC2__\n#endif\n")
	}
	sb.WriteString("struct objc_selector; struct objc_class;\n")
	sb.WriteString("struct __rw_objc_super { struct objc_object *object; struct objc_object *superClass; ")
	if opts.MSExtensions {
		// временные объекты super создаются конструктором
		sb.WriteString("__rw_objc_super(struct objc_object *o, struct objc_object *s) : object(o), superClass(s) {} ")
	}
	sb.WriteString("};\n")
	sb.WriteString("#ifndef _REWRITER_typedef_Protocol\n")
	sb.WriteString("typedef struct objc_object Protocol;\n")
	sb.WriteString("#define _REWRITER_typedef_Protocol\n")
	sb.WriteString("#endif\n")
	if opts.MSExtensions {
		sb.WriteString("#define __OBJC_RW_DLLIMPORT extern \"C\" __declspec(dllimport)\n")
		sb.WriteString("#define __OBJC_RW_STATICIMPORT extern \"C\"\n")
	} else {
		sb.WriteString("#define __OBJC_RW_DLLIMPORT extern\n")
	}
	sb.WriteString(runtimeDecls)
	sb.WriteString(constantStringDecls)
	sb.WriteString(blockDecls)
	if opts.MSExtensions {
		sb.WriteString("#undef __OBJC_RW_DLLIMPORT\n")
		sb.WriteString("#undef __OBJC_RW_STATICIMPORT\n")
		sb.WriteString("#ifndef KEEP_ATTRIBUTES\n")
		sb.WriteString("#define __attribute__(X)\n")
		sb.WriteString("#endif\n")
		sb.WriteString("#define __weak\n")
	} else {
		sb.WriteString("#define __block\n")
		sb.WriteString("#define __weak\n")
	}
	sb.WriteString("\n#define __OFFSETOFIVAR__(TYPE, MEMBER) ((long long) &((TYPE *)0)->MEMBER)\n")
	return sb.String()
}
